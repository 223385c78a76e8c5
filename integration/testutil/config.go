// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

//go:build integration

package testutil

// Environment variables read by the integration tests
const (
	EnvPostgresDSN = "ZAPGW_TEST_POSTGRES_DSN"
	EnvMySQLDSN    = "ZAPGW_TEST_MYSQL_DSN"
	EnvGatewayAddr = "ZAPGW_TEST_GATEWAY_ADDR"
	EnvStorageRoot = "ZAPGW_TEST_STORAGE_ROOT"
)
