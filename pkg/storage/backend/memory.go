// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/LeeDigitalWorks/zapgw/pkg/types"
)

func init() {
	Register(types.StorageTypeMemory, func(cfg types.BackendConfig) (types.BackendStorage, error) {
		return NewMemoryStorage(), nil
	})
}

type memoryFile struct {
	data    []byte
	modTime time.Time
}

// MemoryStorage is an in-memory backend for testing. It tracks directories
// so that writes into a missing directory fail like they do on disk.
type MemoryStorage struct {
	mu    sync.RWMutex
	files map[string]*memoryFile
	dirs  map[string]struct{}
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		files: make(map[string]*memoryFile),
		dirs:  map[string]struct{}{string(filepath.Separator): {}},
	}
}

func (m *MemoryStorage) Type() types.StorageType {
	return types.StorageTypeMemory
}

func (m *MemoryStorage) MkdirAll(ctx context.Context, dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for d := filepath.Clean(dir); ; d = filepath.Dir(d) {
		if _, isFile := m.files[d]; isFile {
			return fmt.Errorf("create dir: %s is a file", d)
		}
		m.dirs[d] = struct{}{}
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	return nil
}

func (m *MemoryStorage) Write(ctx context.Context, path string, data io.Reader) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("write data: %w", err)
	}

	path = filepath.Clean(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.dirs[filepath.Dir(path)]; !ok {
		return fmt.Errorf("create file: parent directory of %s does not exist", path)
	}
	if _, isDir := m.dirs[path]; isDir {
		return fmt.Errorf("create file: %s is a directory", path)
	}
	m.files[path] = &memoryFile{data: buf, modTime: time.Now()}
	return nil
}

func (m *MemoryStorage) Open(ctx context.Context, path string) (types.ObjectReader, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return &memoryReader{Reader: bytes.NewReader(f.data), modTime: f.modTime}, nil
}

func (m *MemoryStorage) Exists(ctx context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	path = filepath.Clean(path)
	if _, ok := m.files[path]; ok {
		return true, nil
	}
	_, ok := m.dirs[path]
	return ok, nil
}

func (m *MemoryStorage) Size(ctx context.Context, path string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[filepath.Clean(path)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return int64(len(f.data)), nil
}

func (m *MemoryStorage) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, filepath.Clean(path))
	return nil
}

func (m *MemoryStorage) RemoveAll(ctx context.Context, dir string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir = filepath.Clean(dir)
	_, existed := m.dirs[dir]
	prefix := dir + string(filepath.Separator)

	for p := range m.files {
		if p == dir || strings.HasPrefix(p, prefix) {
			existed = true
			delete(m.files, p)
		}
	}
	for d := range m.dirs {
		if d == dir || strings.HasPrefix(d, prefix) {
			delete(m.dirs, d)
		}
	}
	return existed, nil
}

func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = make(map[string]*memoryFile)
	m.dirs = map[string]struct{}{string(filepath.Separator): {}}
	return nil
}

// Len returns the number of stored files
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

type memoryReader struct {
	*bytes.Reader
	modTime time.Time
}

func (r *memoryReader) Close() error {
	return nil
}

func (r *memoryReader) ModTime() time.Time {
	return r.modTime
}
