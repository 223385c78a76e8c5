// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"context"
	"io"
	"time"
)

// StorageType identifies the backend storage implementation
type StorageType string

const (
	StorageTypeLocal  StorageType = "local"  // Local filesystem
	StorageTypeMemory StorageType = "memory" // In-process, for tests and local development
)

// ObjectReader is an open object file. It supports seeking so that
// range and conditional requests can be served from it.
type ObjectReader interface {
	io.ReadSeekCloser

	// ModTime returns the last modification time of the file
	ModTime() time.Time
}

// BackendStorage is the filesystem the gateway stores object bytes on.
// All paths are absolute and produced by the object path resolver.
type BackendStorage interface {
	// Type returns the storage type
	Type() StorageType

	// MkdirAll creates a directory and all missing parents
	MkdirAll(ctx context.Context, dir string) error

	// Write stores data at path, replacing any existing file
	Write(ctx context.Context, path string, data io.Reader) error

	// Open opens the file at path for reading
	Open(ctx context.Context, path string) (ObjectReader, error)

	// Exists checks if a file exists at path
	Exists(ctx context.Context, path string) (bool, error)

	// Size returns the size of the file at path
	Size(ctx context.Context, path string) (int64, error)

	// Delete removes the file at path
	Delete(ctx context.Context, path string) error

	// RemoveAll removes a directory tree. It reports whether the
	// directory existed.
	RemoveAll(ctx context.Context, dir string) (bool, error)

	// Close releases any resources
	Close() error
}

// BackendConfig contains configuration for creating a backend storage instance
type BackendConfig struct {
	Type StorageType `json:"type"`

	// Root is the storage root all object paths live under
	Root string `json:"root"`
}
