// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"context"
)

// Service binds object metadata to files on the storage tree. Every
// operation normalizes the key first, so "a/b/" and "a/b" are the same
// object. Errors are *Error values.
type Service interface {
	// DeleteBucket removes the bucket directory if present and then every
	// record of the bucket. A missing directory is not an error.
	DeleteBucket(ctx context.Context, bucket string) (*DeleteBucketResult, error)

	// PutObject writes the body to the object path, overwriting any
	// existing file, and upserts the record with the size measured on disk.
	PutObject(ctx context.Context, req *PutObjectRequest) (*PutObjectResult, error)

	// DeleteObject removes the file and then the record. When the record
	// exists but the file does not, it returns not found and leaves the
	// record in place.
	DeleteObject(ctx context.Context, bucket, key string) (*DeleteObjectResult, error)

	// HeadObject reports the recorded size if both record and file exist.
	HeadObject(ctx context.Context, bucket, key string) (*HeadObjectResult, error)

	// GetObject opens the object file. Returns a reader that the caller must close.
	GetObject(ctx context.Context, bucket, key string) (*GetObjectResult, error)
}
