//go:build integration

// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/LeeDigitalWorks/zapgw/integration/testutil"
	"github.com/LeeDigitalWorks/zapgw/pkg/metadata/db"
	"github.com/LeeDigitalWorks/zapgw/pkg/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// migrate applies the schema twice; the second run must be a no-op
func migrate(t *testing.T, store db.DB) {
	t.Helper()

	ctx, cancel := testutil.WithTimeout(context.Background())
	defer cancel()
	require.NoError(t, store.Migrate(ctx), "should run migrations")
	require.NoError(t, store.Migrate(ctx), "migrations should be idempotent")
	require.NoError(t, store.Ping(ctx))
}

func newRecord(bucket, key string, size int64, node *string) *types.ObjectRecord {
	return &types.ObjectRecord{
		ID:        uuid.New(),
		Bucket:    bucket,
		Key:       key,
		NodeName:  node,
		Path:      "/s3/" + bucket + "/" + key,
		Size:      size,
		CreatedAt: time.Now().UTC(),
	}
}

// runStoreSuite exercises an ObjectStore against a real database
func runStoreSuite(t *testing.T, store db.ObjectStore) {
	ctx := context.Background()

	t.Run("UpsertAndFind", func(t *testing.T) {
		bucket := testutil.UniqueID("bucket")
		node := "node-1"
		rec := newRecord(bucket, "a/b/c.txt", 42, &node)

		require.NoError(t, store.UpsertObject(ctx, rec))

		got, err := store.FindObject(ctx, bucket, "a/b/c.txt")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.Path, got.Path)
		assert.Equal(t, int64(42), got.Size)
		require.NotNil(t, got.NodeName)
		assert.Equal(t, "node-1", *got.NodeName)
		assert.WithinDuration(t, rec.CreatedAt, got.CreatedAt, time.Second)
	})

	t.Run("FindMissing", func(t *testing.T) {
		_, err := store.FindObject(ctx, testutil.UniqueID("bucket"), "missing")
		assert.ErrorIs(t, err, db.ErrObjectNotFound)
	})

	t.Run("UpsertOverwritesInPlace", func(t *testing.T) {
		bucket := testutil.UniqueID("bucket")
		first := newRecord(bucket, "k", 10, nil)
		require.NoError(t, store.UpsertObject(ctx, first))

		second := newRecord(bucket, "k", 20, nil)
		second.Path = "/s3/other/k"
		require.NoError(t, store.UpsertObject(ctx, second))
		assert.Equal(t, first.ID, second.ID, "stored ID is reported back")

		got, err := store.FindObject(ctx, bucket, "k")
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID, "row identity is kept")
		assert.Equal(t, int64(20), got.Size)
		assert.Equal(t, "/s3/other/k", got.Path)

		n, err := store.CountObjects(ctx, bucket)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("NullNodeName", func(t *testing.T) {
		bucket := testutil.UniqueID("bucket")
		require.NoError(t, store.UpsertObject(ctx, newRecord(bucket, "k", 1, nil)))

		got, err := store.FindObject(ctx, bucket, "k")
		require.NoError(t, err)
		assert.Nil(t, got.NodeName)
	})

	t.Run("DeleteObject", func(t *testing.T) {
		bucket := testutil.UniqueID("bucket")
		require.NoError(t, store.UpsertObject(ctx, newRecord(bucket, "k", 1, nil)))

		require.NoError(t, store.DeleteObject(ctx, bucket, "k"))
		_, err := store.FindObject(ctx, bucket, "k")
		assert.ErrorIs(t, err, db.ErrObjectNotFound)
	})

	t.Run("DeleteBucketObjects", func(t *testing.T) {
		bucket := testutil.UniqueID("bucket")
		sibling := bucket + "-sibling"
		for i := range 5 {
			require.NoError(t, store.UpsertObject(ctx, newRecord(bucket, fmt.Sprintf("k%d", i), 1, nil)))
		}
		require.NoError(t, store.UpsertObject(ctx, newRecord(sibling, "k0", 1, nil)))

		n, err := store.DeleteBucketObjects(ctx, bucket)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)

		n, err = store.CountObjects(ctx, bucket)
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = store.CountObjects(ctx, sibling)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = store.DeleteBucketObjects(ctx, bucket)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("LongKey", func(t *testing.T) {
		bucket := testutil.UniqueID("bucket")
		key := ""
		for len(key) < 1000 {
			key += "segment/"
		}
		require.NoError(t, store.UpsertObject(ctx, newRecord(bucket, key, 1, nil)))

		got, err := store.FindObject(ctx, bucket, key)
		require.NoError(t, err)
		assert.Equal(t, key, got.Key)
	})
}
