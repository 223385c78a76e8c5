// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package vitess provides a Vitess/MySQL implementation of the db.DB interface.
package vitess

import (
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"os"

	"github.com/LeeDigitalWorks/zapgw/pkg/metadata/db"
	dbsql "github.com/LeeDigitalWorks/zapgw/pkg/metadata/db/sql"

	"github.com/go-sql-driver/mysql"
)

// TLSMode specifies how TLS should be configured for MySQL connections
type TLSMode string

const (
	// TLSModeDisabled disables TLS
	TLSModeDisabled TLSMode = "disabled"
	// TLSModePreferred uses TLS if available (default MySQL driver behavior with tls=preferred)
	TLSModePreferred TLSMode = "preferred"
	// TLSModeRequired requires TLS but skips certificate verification
	TLSModeRequired TLSMode = "required"
	// TLSModeVerifyCA requires TLS and verifies the server certificate against a CA
	TLSModeVerifyCA TLSMode = "verify-ca"
)

// tlsConfigName is the name the verify-ca config is registered under
const tlsConfigName = "zapgw-custom"

// Config holds Vitess connection configuration
type Config struct {
	db.Config

	// TLS settings
	TLSMode   TLSMode // TLS mode: disabled, preferred, required, verify-ca
	TLSCAFile string  // Path to CA certificate file (for verify-ca mode)
}

// Vitess implements db.DB using Vitess or MySQL as the backing store
type Vitess struct {
	*dbsql.Store
	config Config
}

// NewVitess creates a new Vitess-backed database
func NewVitess(cfg Config) (*Vitess, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn required for %s driver", cfg.Driver)
	}

	dsn, err := prepareDSN(cfg)
	if err != nil {
		return nil, err
	}

	store, err := dbsql.Open("mysql", dsn, dbsql.MySQLDialect{}, cfg.Config)
	if err != nil {
		return nil, err
	}

	return &Vitess{
		Store:  store,
		config: cfg,
	}, nil
}

// SqlDB returns the underlying *sql.DB for pool metrics
func (v *Vitess) SqlDB() *sql.DB {
	return v.Store.DB()
}

// Ensure Vitess implements db.DB
var _ db.DB = (*Vitess)(nil)

// prepareDSN parses the DSN, turns on time parsing for created_at and
// applies the TLS mode.
func prepareDSN(cfg Config) (string, error) {
	mcfg, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	mcfg.ParseTime = true

	if err := configureTLS(mcfg, cfg); err != nil {
		return "", fmt.Errorf("configure TLS: %w", err)
	}
	return mcfg.FormatDSN(), nil
}

// configureTLS sets up TLS for MySQL connections
func configureTLS(mcfg *mysql.Config, cfg Config) error {
	switch cfg.TLSMode {
	case "":
		// Keep whatever the DSN says
		return nil

	case TLSModeDisabled:
		mcfg.TLSConfig = "false"

	case TLSModePreferred:
		mcfg.TLSConfig = "preferred"

	case TLSModeRequired:
		// Encrypts but doesn't verify the certificate
		mcfg.TLSConfig = "skip-verify"

	case TLSModeVerifyCA:
		tlsConfig := &tls.Config{
			MinVersion: tls.VersionTLS12,
		}

		if cfg.TLSCAFile != "" {
			caCert, err := os.ReadFile(cfg.TLSCAFile)
			if err != nil {
				return fmt.Errorf("read CA file: %w", err)
			}
			caCertPool := x509.NewCertPool()
			if !caCertPool.AppendCertsFromPEM(caCert) {
				return fmt.Errorf("failed to append CA certificate")
			}
			tlsConfig.RootCAs = caCertPool
		}

		if err := mysql.RegisterTLSConfig(tlsConfigName, tlsConfig); err != nil {
			return fmt.Errorf("register TLS config: %w", err)
		}
		mcfg.TLSConfig = tlsConfigName

	default:
		return fmt.Errorf("unknown TLS mode: %s", cfg.TLSMode)
	}

	return nil
}
