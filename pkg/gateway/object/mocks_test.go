// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"context"

	"github.com/LeeDigitalWorks/zapgw/pkg/types"

	"github.com/stretchr/testify/mock"
)

// MockObjectStore is a testify mock of db.ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) FindObject(ctx context.Context, bucket, key string) (*types.ObjectRecord, error) {
	args := m.Called(ctx, bucket, key)
	if rec := args.Get(0); rec != nil {
		return rec.(*types.ObjectRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockObjectStore) UpsertObject(ctx context.Context, rec *types.ObjectRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockObjectStore) DeleteObject(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

func (m *MockObjectStore) DeleteBucketObjects(ctx context.Context, bucket string) (int64, error) {
	args := m.Called(ctx, bucket)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockObjectStore) CountObjects(ctx context.Context, bucket string) (int64, error) {
	args := m.Called(ctx, bucket)
	return args.Get(0).(int64), args.Error(1)
}

// MockNodeProvider is a testify mock of nodeid.Provider
type MockNodeProvider struct {
	mock.Mock
}

func (m *MockNodeProvider) NodeID(ctx context.Context) (*string, error) {
	args := m.Called(ctx)
	if id := args.Get(0); id != nil {
		return id.(*string), args.Error(1)
	}
	return nil, args.Error(1)
}

// vanishingStorage reports files as present but fails to open them, as if
// they were removed between the two calls.
type vanishingStorage struct {
	types.BackendStorage
}

func (v *vanishingStorage) Open(ctx context.Context, path string) (types.ObjectReader, error) {
	if err := v.BackendStorage.Delete(ctx, path); err != nil {
		return nil, err
	}
	return v.BackendStorage.Open(ctx, path)
}
