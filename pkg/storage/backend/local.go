// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/LeeDigitalWorks/zapgw/pkg/types"
	"github.com/LeeDigitalWorks/zapgw/pkg/utils"
)

func init() {
	Register(types.StorageTypeLocal, NewLocal)
}

// Local implements BackendStorage for local filesystem
type Local struct {
	basePath string
}

// NewLocal creates a local filesystem backend
func NewLocal(cfg types.BackendConfig) (types.BackendStorage, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("root required for local backend")
	}

	// Ensure base path exists
	if err := os.MkdirAll(cfg.Root, 0755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return &Local{basePath: cfg.Root}, nil
}

func (l *Local) Type() types.StorageType {
	return types.StorageTypeLocal
}

// Root returns the storage root
func (l *Local) Root() string {
	return l.basePath
}

func (l *Local) MkdirAll(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	return nil
}

// Write truncates any existing file at path. Bytes already written stay on
// disk if the copy fails part way, the same as an interrupted overwrite.
func (l *Local) Write(ctx context.Context, path string, data io.Reader) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := utils.Copy(f, data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}

	if err := Fdatasync(f); err != nil {
		return fmt.Errorf("sync file: %w", err)
	}
	return f.Close()
}

func (l *Local) Open(ctx context.Context, path string) (types.ObjectReader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	return &localFile{File: f, modTime: info.ModTime()}, nil
}

func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (l *Local) Size(ctx context.Context, path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return 0, err
	}
	return info.Size(), nil
}

func (l *Local) Delete(ctx context.Context, path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil // Already gone
	}
	return err
}

func (l *Local) RemoveAll(ctx context.Context, dir string) (bool, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := os.RemoveAll(filepath.Clean(dir)); err != nil {
		return true, fmt.Errorf("remove dir: %w", err)
	}
	return true, nil
}

func (l *Local) Close() error {
	return nil
}

// localFile pairs an open file with the modification time seen at open
type localFile struct {
	*os.File
	modTime time.Time
}

func (f *localFile) ModTime() time.Time {
	return f.modTime
}
