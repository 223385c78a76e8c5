// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/LeeDigitalWorks/zapgw/pkg/logger"
	"github.com/LeeDigitalWorks/zapgw/pkg/metadata/db"
	"github.com/LeeDigitalWorks/zapgw/pkg/metadata/db/memory"
	"github.com/LeeDigitalWorks/zapgw/pkg/metadata/db/postgres"
	"github.com/LeeDigitalWorks/zapgw/pkg/metadata/db/vitess"

	"github.com/spf13/pflag"
)

type DatabaseOpts struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	TLSMode         string
	TLSCAFile       string
}

func addDatabaseFlags(f *pflag.FlagSet) {
	f.String("db_driver", string(db.DriverPostgres), "Database driver (postgres, cockroachdb, mysql, vitess, memory)")
	f.String("db_dsn", "", "Database connection string")
	f.Int("db_max_open_conns", db.DefaultMaxOpenConns, "Maximum open database connections")
	f.Int("db_max_idle_conns", db.DefaultMaxIdleConns, "Maximum idle database connections")
	f.Duration("db_conn_max_lifetime", db.DefaultConnMaxLifetime, "Maximum lifetime of a database connection")
	f.Duration("db_conn_max_idle_time", db.DefaultConnMaxIdleTime, "Maximum idle time of a database connection")
	f.String("db_tls_mode", "", "Database TLS mode for mysql/vitess (disabled, preferred, required, verify-ca)")
	f.String("db_tls_ca_file", "", "Path to CA certificate file for database TLS (verify-ca mode)")
}

func loadDatabaseOpts(f *FlagLoader) DatabaseOpts {
	return DatabaseOpts{
		Driver:          f.String("db_driver"),
		DSN:             f.String("db_dsn"),
		MaxOpenConns:    f.Int("db_max_open_conns"),
		MaxIdleConns:    f.Int("db_max_idle_conns"),
		ConnMaxLifetime: f.Duration("db_conn_max_lifetime"),
		ConnMaxIdleTime: f.Duration("db_conn_max_idle_time"),
		TLSMode:         f.String("db_tls_mode"),
		TLSCAFile:       f.String("db_tls_ca_file"),
	}
}

func initializeDatabase(opts DatabaseOpts) (db.DB, error) {
	driver := db.Driver(opts.Driver)
	logger.Info().Str("driver", string(driver)).Str("dsn", maskDSN(opts.DSN)).Msg("initializing database")

	cfg := db.DefaultConfig(driver)
	cfg.DSN = opts.DSN
	if opts.MaxOpenConns > 0 {
		cfg.MaxOpenConns = opts.MaxOpenConns
	}
	if opts.MaxIdleConns > 0 {
		cfg.MaxIdleConns = opts.MaxIdleConns
	}
	if opts.ConnMaxLifetime > 0 {
		cfg.ConnMaxLifetime = opts.ConnMaxLifetime
	}
	if opts.ConnMaxIdleTime > 0 {
		cfg.ConnMaxIdleTime = opts.ConnMaxIdleTime
	}

	switch driver {
	case db.DriverVitess, db.DriverMySQL:
		if opts.DSN == "" {
			return nil, fmt.Errorf("--db_dsn required for %s driver", driver)
		}
		return vitess.NewVitess(vitess.Config{
			Config:    cfg,
			TLSMode:   vitess.TLSMode(opts.TLSMode),
			TLSCAFile: opts.TLSCAFile,
		})
	case db.DriverPostgres, db.DriverCockroach:
		if opts.DSN == "" {
			return nil, fmt.Errorf("--db_dsn required for %s driver", driver)
		}
		return postgres.NewPostgres(cfg)
	case db.DriverMemory:
		logger.Warn().Msg("using in-memory metadata store, records are lost on exit")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown driver: %s", driver)
	}
}

// sqlDBOf returns the connection pool behind a SQL backed store
func sqlDBOf(d db.DB) *sql.DB {
	if m, ok := d.(*db.MetricsDB); ok {
		d = m.Unwrap()
	}
	switch v := d.(type) {
	case *vitess.Vitess:
		return v.SqlDB()
	case *postgres.Postgres:
		return v.SqlDB()
	}
	return nil
}

func maskDSN(dsn string) string {
	if dsn == "" {
		return "(none)"
	}
	if len(dsn) > 20 {
		return dsn[:10] + "***" + dsn[len(dsn)-5:]
	}
	return "***"
}
