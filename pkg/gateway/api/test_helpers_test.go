// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LeeDigitalWorks/zapgw/pkg/gateway/object"
	"github.com/LeeDigitalWorks/zapgw/pkg/metadata/db/memory"
	"github.com/LeeDigitalWorks/zapgw/pkg/nodeid"
	"github.com/LeeDigitalWorks/zapgw/pkg/objpath"
	"github.com/LeeDigitalWorks/zapgw/pkg/storage/backend"
	"github.com/LeeDigitalWorks/zapgw/pkg/types"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*GatewayServer
	db   *memory.DB
	root string
}

// newTestServer creates a GatewayServer over a temporary directory tree and
// an in-memory metadata store.
func newTestServer(t *testing.T, opts ...func(*ServerConfig)) *testServer {
	t.Helper()

	root := t.TempDir()
	storage, err := backend.NewLocal(types.BackendConfig{Type: types.StorageTypeLocal, Root: root})
	require.NoError(t, err)
	resolver, err := objpath.NewResolver(root)
	require.NoError(t, err)
	store := memory.New()

	svc, err := object.NewService(object.Config{
		DB:       store,
		Storage:  storage,
		Resolver: resolver,
		NodeID:   nodeid.Static("gw-test"),
	})
	require.NoError(t, err)

	cfg := ServerConfig{Service: svc}
	for _, opt := range opts {
		opt(&cfg)
	}
	srv, err := NewGatewayServer(cfg)
	require.NoError(t, err)

	return &testServer{GatewayServer: srv, db: store, root: root}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

// upload sends content as the "file" part of a multipart form
func (s *testServer) upload(t *testing.T, bucket, key, content string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(newMultipartRequest(t, "/upload/"+bucket+"/"+key, "file", content))
}

func newMultipartRequest(t *testing.T, target, field, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "upload.bin")
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newRawRequest(method, target, content string) *http.Request {
	var body io.Reader
	if content != "" {
		body = strings.NewReader(content)
	}
	return httptest.NewRequest(method, target, body)
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) MessageResponse {
	t.Helper()
	var resp MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// MockService is a testify mock of object.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) DeleteBucket(ctx context.Context, bucket string) (*object.DeleteBucketResult, error) {
	args := m.Called(ctx, bucket)
	if res := args.Get(0); res != nil {
		return res.(*object.DeleteBucketResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) PutObject(ctx context.Context, req *object.PutObjectRequest) (*object.PutObjectResult, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*object.PutObjectResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) DeleteObject(ctx context.Context, bucket, key string) (*object.DeleteObjectResult, error) {
	args := m.Called(ctx, bucket, key)
	if res := args.Get(0); res != nil {
		return res.(*object.DeleteObjectResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) HeadObject(ctx context.Context, bucket, key string) (*object.HeadObjectResult, error) {
	args := m.Called(ctx, bucket, key)
	if res := args.Get(0); res != nil {
		return res.(*object.HeadObjectResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) GetObject(ctx context.Context, bucket, key string) (*object.GetObjectResult, error) {
	args := m.Called(ctx, bucket, key)
	if res := args.Get(0); res != nil {
		return res.(*object.GetObjectResult), args.Error(1)
	}
	return nil, args.Error(1)
}
