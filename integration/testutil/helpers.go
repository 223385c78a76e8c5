// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

//go:build integration

// Package testutil provides shared utilities for integration tests.
package testutil

import (
	"context"
	"crypto/rand"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// DefaultTimeout is the default timeout for test operations
const DefaultTimeout = 30 * time.Second

// ShortTimeout is a shorter timeout for simple operations
const ShortTimeout = 5 * time.Second

// GetEnv returns the environment variable value or a default
func GetEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// RequireEnv returns the environment variable value or skips the test
func RequireEnv(t *testing.T, key, what string) string {
	t.Helper()
	val := os.Getenv(key)
	if val == "" {
		t.Skipf("%s not set - skipping integration test (requires %s)", key, what)
	}
	return val
}

// GenerateTestData creates random test data of the specified size
func GenerateTestData(t *testing.T, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err, "failed to generate random data")
	return data
}

// WithTimeout creates a context with the default timeout
func WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DefaultTimeout)
}

// WithShortTimeout creates a context with a short timeout
func WithShortTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, ShortTimeout)
}

// UniqueID generates a unique ID for test objects using timestamp
func UniqueID(prefix string) string {
	return prefix + "-" + time.Now().Format("20060102-150405.000000000")
}

// SkipIfShort skips the test if running in short mode
func SkipIfShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
}

// MaskDSN masks sensitive parts of DSN for logging
func MaskDSN(dsn string) string {
	if len(dsn) > 30 {
		return dsn[:15] + "***" + dsn[len(dsn)-10:]
	}
	return "***"
}
