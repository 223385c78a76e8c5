// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory provides an in-memory implementation of db.DB for testing.
// This implementation stores data in maps and is suitable for unit tests
// where fast, isolated testing is needed without a real database.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/LeeDigitalWorks/zapgw/pkg/metadata/db"
	"github.com/LeeDigitalWorks/zapgw/pkg/types"

	"github.com/google/uuid"
)

var errClosed = errors.New("database closed")

// DB is an in-memory database implementation for testing.
type DB struct {
	mu sync.RWMutex

	objects map[string]*types.ObjectRecord // key: bucket/key
	closed  bool
}

// New creates a new in-memory database for testing.
func New() *DB {
	return &DB{
		objects: make(map[string]*types.ObjectRecord),
	}
}

func objectKey(bucket, key string) string {
	return bucket + "/" + key
}

func (d *DB) FindObject(ctx context.Context, bucket, key string) (*types.ObjectRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, errClosed
	}
	rec, ok := d.objects[objectKey(bucket, key)]
	if !ok {
		return nil, db.ErrObjectNotFound
	}
	return rec.Clone(), nil
}

func (d *DB) UpsertObject(ctx context.Context, rec *types.ObjectRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errClosed
	}

	stored := rec.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	k := objectKey(rec.Bucket, rec.Key)
	if existing, ok := d.objects[k]; ok {
		stored.ID = existing.ID
	} else if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	d.objects[k] = stored
	rec.ID = stored.ID
	return nil
}

func (d *DB) DeleteObject(ctx context.Context, bucket, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errClosed
	}
	delete(d.objects, objectKey(bucket, key))
	return nil
}

func (d *DB) DeleteBucketObjects(ctx context.Context, bucket string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, errClosed
	}

	var n int64
	for k, rec := range d.objects {
		if rec.Bucket == bucket {
			delete(d.objects, k)
			n++
		}
	}
	return n, nil
}

func (d *DB) CountObjects(ctx context.Context, bucket string) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return 0, errClosed
	}

	var n int64
	for _, rec := range d.objects {
		if rec.Bucket == bucket {
			n++
		}
	}
	return n, nil
}

func (d *DB) Migrate(ctx context.Context) error {
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errClosed
	}
	return nil
}

func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

var _ db.DB = (*DB)(nil)
