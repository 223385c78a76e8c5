// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package sql provides a dialect-aware SQL database implementation.
// It abstracts the differences between PostgreSQL and MySQL/Vitess,
// allowing a single implementation to support both databases.
package sql

import (
	"fmt"
	"strings"
)

// Dialect abstracts database-specific SQL syntax differences.
type Dialect interface {
	// Name returns the dialect name (e.g., "postgres", "mysql").
	// It also selects the migration set.
	Name() string

	// Placeholder returns the placeholder for the nth parameter (1-indexed).
	// PostgreSQL: "$1", "$2", "$3"
	// MySQL/Vitess: "?", "?", "?"
	Placeholder(n int) string

	// Placeholders returns n placeholders joined by comma.
	// PostgreSQL: "$1, $2, $3"
	// MySQL/Vitess: "?, ?, ?"
	Placeholders(n int) string

	// ReplacePlaceholders converts PostgreSQL-style placeholders ($1, $2, ...)
	// to the dialect's format. This allows writing queries with PostgreSQL
	// syntax and converting them at runtime.
	ReplacePlaceholders(query string) string

	// UpsertSuffix returns the suffix for INSERT statements that should update on conflict.
	// PostgreSQL: "ON CONFLICT (conflict_columns) DO UPDATE SET col1 = EXCLUDED.col1, ..."
	// MySQL/Vitess: "ON DUPLICATE KEY UPDATE col1 = VALUES(col1), ..."
	// The columns parameter specifies which columns to update on conflict.
	UpsertSuffix(conflictColumns string, updateColumns []string) string

	// Returning returns a clause that makes a write report the given
	// columns, or "" when the database has no such clause.
	// PostgreSQL: " RETURNING id"
	Returning(columns string) string
}

// ============================================================================
// PostgreSQL Dialect
// ============================================================================

// PostgresDialect implements Dialect for PostgreSQL and CockroachDB.
type PostgresDialect struct{}

var _ Dialect = PostgresDialect{}

func (d PostgresDialect) Name() string {
	return "postgres"
}

func (d PostgresDialect) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (d PostgresDialect) Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = fmt.Sprintf("$%d", i)
	}
	return strings.Join(parts, ", ")
}

func (d PostgresDialect) ReplacePlaceholders(query string) string {
	// PostgreSQL uses $1, $2, etc. - no conversion needed
	return query
}

func (d PostgresDialect) UpsertSuffix(conflictColumns string, updateColumns []string) string {
	if len(updateColumns) == 0 {
		return ""
	}
	updates := make([]string, len(updateColumns))
	for i, col := range updateColumns {
		updates[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}
	return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", conflictColumns, strings.Join(updates, ", "))
}

func (d PostgresDialect) Returning(columns string) string {
	return " RETURNING " + columns
}

// ============================================================================
// MySQL/Vitess Dialect
// ============================================================================

// MySQLDialect implements Dialect for MySQL/Vitess.
type MySQLDialect struct{}

var _ Dialect = MySQLDialect{}

func (d MySQLDialect) Name() string {
	return "mysql"
}

func (d MySQLDialect) Placeholder(n int) string {
	return "?"
}

func (d MySQLDialect) Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// ReplacePlaceholders rewrites every $N outside of string literals as ?.
// MySQL placeholders are positional, so queries must reference each
// argument once and in order.
func (d MySQLDialect) ReplacePlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query))

	inString := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '\'' {
			inString = !inString
		}
		if !inString && c == '$' && i+1 < len(query) && isDigit(query[i+1]) {
			b.WriteByte('?')
			for i+1 < len(query) && isDigit(query[i+1]) {
				i++
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (d MySQLDialect) UpsertSuffix(conflictColumns string, updateColumns []string) string {
	if len(updateColumns) == 0 {
		return ""
	}
	updates := make([]string, len(updateColumns))
	for i, col := range updateColumns {
		updates[i] = fmt.Sprintf("%s = VALUES(%s)", col, col)
	}
	return " ON DUPLICATE KEY UPDATE " + strings.Join(updates, ", ")
}

// Returning is unsupported; callers read the row back instead.
func (d MySQLDialect) Returning(columns string) string {
	return ""
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
