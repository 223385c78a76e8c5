// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/LeeDigitalWorks/zapgw/pkg/metadata/db"
	"github.com/LeeDigitalWorks/zapgw/pkg/metadata/db/memory"
	"github.com/LeeDigitalWorks/zapgw/pkg/nodeid"
	"github.com/LeeDigitalWorks/zapgw/pkg/objpath"
	"github.com/LeeDigitalWorks/zapgw/pkg/storage/backend"
	"github.com/LeeDigitalWorks/zapgw/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	svc     Service
	db      *memory.DB
	storage types.BackendStorage
	root    string
}

func newTestEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()

	root := t.TempDir()
	storage, err := backend.NewLocal(types.BackendConfig{Type: types.StorageTypeLocal, Root: root})
	require.NoError(t, err)
	resolver, err := objpath.NewResolver(root)
	require.NoError(t, err)
	store := memory.New()

	cfg := Config{
		DB:       store,
		Storage:  storage,
		Resolver: resolver,
		NodeID:   nodeid.Static("node-1"),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	svc, err := NewService(cfg)
	require.NoError(t, err)
	return &testEnv{svc: svc, db: store, storage: cfg.Storage, root: root}
}

func (e *testEnv) put(t *testing.T, bucket, key, body string) *PutObjectResult {
	t.Helper()
	res, err := e.svc.PutObject(context.Background(), &PutObjectRequest{
		Bucket: bucket,
		Key:    key,
		Body:   strings.NewReader(body),
	})
	require.NoError(t, err)
	return res
}

func (e *testEnv) get(t *testing.T, bucket, key string) string {
	t.Helper()
	res, err := e.svc.GetObject(context.Background(), bucket, key)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(data)
}

// ============================================================================
// Construction
// ============================================================================

func TestNewService(t *testing.T) {
	t.Parallel()

	resolver, err := objpath.NewResolver("/s3")
	require.NoError(t, err)

	tests := []struct {
		name        string
		cfg         Config
		errContains string
	}{
		{
			name:        "missing DB",
			cfg:         Config{Storage: backend.NewMemoryStorage(), Resolver: resolver},
			errContains: "DB is required",
		},
		{
			name:        "missing storage",
			cfg:         Config{DB: memory.New(), Resolver: resolver},
			errContains: "Storage is required",
		},
		{
			name:        "missing resolver",
			cfg:         Config{DB: memory.New(), Storage: backend.NewMemoryStorage()},
			errContains: "Resolver is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewService(tt.cfg)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

// ============================================================================
// Upload / Get / Head
// ============================================================================

func TestPutThenGet(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.put(t, "photos", "a.jpg", "hello world")

	assert.Equal(t, "hello world", env.get(t, "photos", "a.jpg"))
}

func TestPutThenHead(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.put(t, "photos", "a.jpg", "hello world")

	res, err := env.svc.HeadObject(context.Background(), "photos", "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(11), res.Record.Size)
	assert.Equal(t, "node-1", res.Record.Node())
	assert.Equal(t, filepath.Join(env.root, "photos", "a.jpg"), res.Record.Path)
}

func TestPut_RecordMatchesDisk(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	res := env.put(t, "docs", "report.pdf", "0123456789")

	info, err := os.Stat(res.Record.Path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), res.Record.Size)

	rec, err := env.db.FindObject(context.Background(), "docs", "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, res.Record.Path, rec.Path)
	assert.Equal(t, int64(10), rec.Size)
}

func TestPut_Overwrite(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	env.put(t, "b", "k", "first version, longer")
	first, err := env.db.FindObject(ctx, "b", "k")
	require.NoError(t, err)

	res := env.put(t, "b", "k", "second")
	assert.Equal(t, first.ID, res.Record.ID)

	n, err := env.db.CountObjects(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rec, err := env.db.FindObject(ctx, "b", "k")
	require.NoError(t, err)
	assert.Equal(t, first.ID, rec.ID)
	assert.Equal(t, int64(6), rec.Size)
	assert.False(t, rec.CreatedAt.Before(first.CreatedAt))
	assert.Equal(t, "second", env.get(t, "b", "k"))
}

func TestPut_HierarchicalKey(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.put(t, "b", "a/b/c", "nested")

	info, err := os.Stat(filepath.Join(env.root, "b", "a", "b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.Equal(t, "nested", env.get(t, "b", "a/b/c"))
}

func TestPut_NodeIdentityAbsent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(c *Config) {
		c.NodeID = nodeid.NewFileProvider(filepath.Join(t.TempDir(), "node-id"))
	})
	res := env.put(t, "b", "k", "x")
	assert.Nil(t, res.Record.NodeName)

	rec, err := env.db.FindObject(context.Background(), "b", "k")
	require.NoError(t, err)
	assert.Nil(t, rec.NodeName)
}

func TestPut_NodeIdentityError(t *testing.T) {
	t.Parallel()

	provider := &MockNodeProvider{}
	provider.On("NodeID", mock.Anything).Return(nil, errors.New("permission denied"))

	env := newTestEnv(t, func(c *Config) { c.NodeID = provider })
	_, err := env.svc.PutObject(context.Background(), &PutObjectRequest{
		Bucket: "b", Key: "k", Body: strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.Equal(t, ErrCodeInternalError, CodeOf(err))
	provider.AssertExpectations(t)
}

func TestPut_MissingBody(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, err := env.svc.PutObject(context.Background(), &PutObjectRequest{Bucket: "b", Key: "k"})
	assert.True(t, IsValidation(err))
}

func TestPut_PrefixIsFile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.put(t, "b", "a", "file")

	// "a" is a file, so "a/b" cannot get a directory
	_, err := env.svc.PutObject(context.Background(), &PutObjectRequest{
		Bucket: "b", Key: "a/b", Body: strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.Equal(t, ErrCodeInternalError, CodeOf(err))
}

// ============================================================================
// Upsert failure and compensation
// ============================================================================

func TestPut_UpsertFailure(t *testing.T) {
	t.Parallel()

	for _, compensate := range []bool{false, true} {
		t.Run(fmt.Sprintf("compensate=%v", compensate), func(t *testing.T) {
			t.Parallel()

			store := &MockObjectStore{}
			store.On("UpsertObject", mock.Anything, mock.AnythingOfType("*types.ObjectRecord")).
				Return(errors.New("connection refused"))

			env := newTestEnv(t, func(c *Config) {
				c.DB = store
				c.CompensateFailedUpsert = compensate
			})

			_, err := env.svc.PutObject(context.Background(), &PutObjectRequest{
				Bucket: "b", Key: "k", Body: strings.NewReader("data"),
			})
			require.Error(t, err)
			assert.Equal(t, ErrCodeInternalError, CodeOf(err))
			assert.Contains(t, err.Error(), "connection refused")

			_, statErr := os.Stat(filepath.Join(env.root, "b", "k"))
			if compensate {
				assert.True(t, os.IsNotExist(statErr), "file should be removed")
			} else {
				assert.NoError(t, statErr, "file should be kept")
			}
			store.AssertExpectations(t)
		})
	}
}

// ============================================================================
// Delete
// ============================================================================

func TestDelete_NeverUploaded(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, err := env.svc.DeleteObject(context.Background(), "b", "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, ReasonNoRecord, NotFoundReasonOf(err))
}

func TestDelete_RemovesFileAndRecord(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	res := env.put(t, "b", "dir/k", "data")

	_, err := env.svc.DeleteObject(ctx, "b", "dir/k")
	require.NoError(t, err)

	_, statErr := os.Stat(res.Record.Path)
	assert.True(t, os.IsNotExist(statErr))

	_, err = env.db.FindObject(ctx, "b", "dir/k")
	assert.ErrorIs(t, err, db.ErrObjectNotFound)

	_, err = env.svc.GetObject(ctx, "b", "dir/k")
	assert.True(t, IsNotFound(err))
}

func TestDelete_StoreFailure(t *testing.T) {
	t.Parallel()

	store := &MockObjectStore{}
	env := newTestEnv(t, func(c *Config) { c.DB = store })

	path := filepath.Join(env.root, "b", "k")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	store.On("FindObject", mock.Anything, "b", "k").Return(&types.ObjectRecord{Bucket: "b", Key: "k", Path: path, Size: 1}, nil)
	store.On("DeleteObject", mock.Anything, "b", "k").Return(errors.New("deadlock"))

	_, err := env.svc.DeleteObject(context.Background(), "b", "k")
	require.Error(t, err)
	assert.Equal(t, ErrCodeInternalError, CodeOf(err))
	store.AssertExpectations(t)
}

// ============================================================================
// Out-of-band removal
// ============================================================================

func TestOutOfBandRemoval(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	res := env.put(t, "b", "k", "data")

	require.NoError(t, os.Remove(res.Record.Path))

	_, err := env.svc.HeadObject(ctx, "b", "k")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, ReasonMissingOnDisk, NotFoundReasonOf(err))

	_, err = env.svc.GetObject(ctx, "b", "k")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, ReasonMissingOnDisk, NotFoundReasonOf(err))

	_, err = env.svc.DeleteObject(ctx, "b", "k")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, ReasonMissingOnDisk, NotFoundReasonOf(err))

	// The stale record is left in place
	_, err = env.db.FindObject(ctx, "b", "k")
	assert.NoError(t, err)
}

func TestGet_FileVanishesBeforeOpen(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.put(t, "b", "k", "data")

	svc, err := NewService(Config{
		DB:       env.db,
		Storage:  &vanishingStorage{BackendStorage: env.storage},
		Resolver: env.svc.(*serviceImpl).resolver,
	})
	require.NoError(t, err)

	_, err = svc.GetObject(context.Background(), "b", "k")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, ReasonMissingOnDisk, NotFoundReasonOf(err))
}

func TestHead_StoreFailure(t *testing.T) {
	t.Parallel()

	store := &MockObjectStore{}
	store.On("FindObject", mock.Anything, "b", "k").Return(nil, errors.New("timeout"))
	env := newTestEnv(t, func(c *Config) { c.DB = store })

	_, err := env.svc.HeadObject(context.Background(), "b", "k")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Equal(t, ErrCodeInternalError, CodeOf(err))
}

// ============================================================================
// DeleteBucket
// ============================================================================

func TestDeleteBucket(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	keys := []string{"a", "b/c", "d/e/f"}
	for _, k := range keys {
		env.put(t, "photos", k, "x")
	}
	env.put(t, "photos-old", "a", "keep")

	res, err := env.svc.DeleteBucket(ctx, "photos")
	require.NoError(t, err)
	assert.True(t, res.DirectoryExisted)
	assert.Equal(t, int64(3), res.RecordsDeleted)

	for _, k := range keys {
		_, err := env.svc.HeadObject(ctx, "photos", k)
		assert.True(t, IsNotFound(err), k)
		assert.Equal(t, ReasonNoRecord, NotFoundReasonOf(err), k)
	}

	_, err = os.Stat(filepath.Join(env.root, "photos"))
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, "keep", env.get(t, "photos-old", "a"))
}

func TestDeleteBucket_MissingDirectoryStillDeletesRecords(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.put(t, "b", "k", "x")
	require.NoError(t, os.RemoveAll(filepath.Join(env.root, "b")))

	res, err := env.svc.DeleteBucket(ctx, "b")
	require.NoError(t, err)
	assert.False(t, res.DirectoryExisted)
	assert.Equal(t, int64(1), res.RecordsDeleted)

	// Deleting again succeeds with nothing to do
	res, err = env.svc.DeleteBucket(ctx, "b")
	require.NoError(t, err)
	assert.Zero(t, res.RecordsDeleted)
}

func TestDeleteBucket_StoreFailure(t *testing.T) {
	t.Parallel()

	store := &MockObjectStore{}
	store.On("DeleteBucketObjects", mock.Anything, "b").Return(int64(0), errors.New("read only"))
	env := newTestEnv(t, func(c *Config) { c.DB = store })

	_, err := env.svc.DeleteBucket(context.Background(), "b")
	require.Error(t, err)
	assert.Equal(t, ErrCodeInternalError, CodeOf(err))
}

// ============================================================================
// Key normalization and validation
// ============================================================================

func TestTrailingSeparatorEquivalence(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	env.put(t, "b", "a/b/", "slash")
	assert.Equal(t, "slash", env.get(t, "b", "a/b"))

	res, err := env.svc.HeadObject(ctx, "b", "a/b/")
	require.NoError(t, err)
	assert.Equal(t, "a/b", res.Record.Key)

	env.put(t, "b", "a/b", "plain")
	assert.Equal(t, "plain", env.get(t, "b", "a/b/"))
	n, err := env.db.CountObjects(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = env.svc.DeleteObject(ctx, "b", "a/b/")
	require.NoError(t, err)
	_, err = env.svc.HeadObject(ctx, "b", "a/b")
	assert.True(t, IsNotFound(err))
}

func TestInvalidBucketOrKey(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct{ bucket, key string }{
		{"", "k"},
		{"..", "k"},
		{"b", "../escape"},
		{"b", "a/../../escape"},
		{"b", "/"},
		{"b", "a//b"},
		{"b", "a/./b"},
		{"b", "/a/b"},
	}

	for _, c := range cases {
		_, err := env.svc.PutObject(ctx, &PutObjectRequest{Bucket: c.bucket, Key: c.key, Body: strings.NewReader("x")})
		assert.True(t, IsValidation(err), "put %q %q", c.bucket, c.key)

		_, err = env.svc.GetObject(ctx, c.bucket, c.key)
		assert.True(t, IsValidation(err), "get %q %q", c.bucket, c.key)

		_, err = env.svc.HeadObject(ctx, c.bucket, c.key)
		assert.True(t, IsValidation(err), "head %q %q", c.bucket, c.key)

		_, err = env.svc.DeleteObject(ctx, c.bucket, c.key)
		assert.True(t, IsValidation(err), "delete %q %q", c.bucket, c.key)
	}

	_, err := env.svc.DeleteBucket(ctx, "..")
	assert.True(t, IsValidation(err))

	_, statErr := os.Stat(filepath.Join(filepath.Dir(env.root), "escape"))
	assert.True(t, os.IsNotExist(statErr))
}

// ============================================================================
// Key locking
// ============================================================================

func TestKeyLocking_ConcurrentPuts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(c *Config) { c.KeyLocking = true })
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := env.svc.PutObject(ctx, &PutObjectRequest{
				Bucket: "b",
				Key:    "hot",
				Body:   strings.NewReader(strings.Repeat("x", n*100)),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// With writes serialized the record describes the file that won
	rec, err := env.db.FindObject(ctx, "b", "hot")
	require.NoError(t, err)
	info, err := os.Stat(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), rec.Size)
}

// ============================================================================
// Errors
// ============================================================================

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	nf := newNotFoundError(ReasonMissingOnDisk)
	assert.True(t, IsNotFound(nf))
	assert.Equal(t, "object not found on disk", nf.Error())

	wrapped := fmt.Errorf("handler: %w", nf)
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, ReasonMissingOnDisk, NotFoundReasonOf(wrapped))

	internal := newInternalError(errors.New("boom"))
	assert.Equal(t, "internal error: boom", internal.Error())
	assert.Equal(t, ErrCodeInternalError, CodeOf(errors.New("plain")))
	assert.Equal(t, ErrCodeNone, CodeOf(nil))
	assert.Equal(t, NotFoundReason(""), NotFoundReasonOf(internal))
	assert.Equal(t, "not_found", ErrCodeNotFound.String())
}
