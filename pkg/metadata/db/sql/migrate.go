// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LeeDigitalWorks/zapgw/pkg/logger"
	"github.com/LeeDigitalWorks/zapgw/pkg/metadata/db"
)

// Migrate creates the schema_migrations table if needed and applies the
// pending migrations for the store's dialect.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	applied, err := db.RunMigrations(ctx, &migrator{store: s}, s.dialect.Name())
	if err != nil {
		return err
	}
	logger.Info().
		Str("dialect", s.dialect.Name()).
		Int("applied", applied).
		Msg("database migrations complete")
	return nil
}

// migrator implements db.Migrator on a Store
type migrator struct {
	store *Store
}

func (m *migrator) CurrentVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := m.store.db.QueryRowContext(ctx, `
		SELECT MAX(version) FROM schema_migrations
	`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("get current version: %w", err)
	}
	return int(version.Int64), nil
}

// Apply executes statements one at a time. The MySQL driver does not allow
// multiple statements per Exec by default.
func (m *migrator) Apply(ctx context.Context, migration db.Migration) error {
	for _, stmt := range db.SplitStatements(migration.SQL) {
		if _, err := m.store.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute statement: %w", err)
		}
	}
	return nil
}

func (m *migrator) SetVersion(ctx context.Context, version int) error {
	_, err := m.store.Exec(ctx, `
		INSERT INTO schema_migrations (version) VALUES ($1)
	`, version)
	if err != nil {
		return fmt.Errorf("record migration version: %w", err)
	}
	return nil
}
