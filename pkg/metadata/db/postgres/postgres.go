// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package postgres provides a PostgreSQL/CockroachDB implementation of the db.DB interface.
package postgres

import (
	"database/sql"
	"fmt"

	"github.com/LeeDigitalWorks/zapgw/pkg/metadata/db"
	dbsql "github.com/LeeDigitalWorks/zapgw/pkg/metadata/db/sql"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver (also works with CockroachDB)
)

// Postgres implements db.DB using PostgreSQL/CockroachDB as the backing store
type Postgres struct {
	*dbsql.Store // Embedded for shared object operations
	config       db.Config
}

// NewPostgres creates a new PostgreSQL-backed database
func NewPostgres(cfg db.Config) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn required for %s driver", cfg.Driver)
	}
	if cfg.Driver == "" {
		cfg.Driver = db.DriverPostgres
	}

	store, err := dbsql.Open("pgx", cfg.DSN, dbsql.PostgresDialect{}, cfg)
	if err != nil {
		return nil, err
	}

	return &Postgres{
		Store:  store,
		config: cfg,
	}, nil
}

// SqlDB returns the underlying *sql.DB for pool metrics
func (p *Postgres) SqlDB() *sql.DB {
	return p.Store.DB()
}

// Ensure Postgres implements db.DB
var _ db.DB = (*Postgres)(nil)
