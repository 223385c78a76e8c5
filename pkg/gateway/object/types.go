// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"io"

	"github.com/LeeDigitalWorks/zapgw/pkg/types"
)

// PutObjectRequest contains parameters for storing an object
type PutObjectRequest struct {
	Bucket string
	Key    string
	Body   io.Reader
}

// PutObjectResult contains the record written for the object
type PutObjectResult struct {
	Record *types.ObjectRecord
}

// GetObjectResult contains the object record and an open file
type GetObjectResult struct {
	Record *types.ObjectRecord
	Body   types.ObjectReader // Caller must close
}

// HeadObjectResult contains the object record without the body
type HeadObjectResult struct {
	Record *types.ObjectRecord
}

// DeleteObjectResult describes a successful delete
type DeleteObjectResult struct {
	Record *types.ObjectRecord
}

// DeleteBucketResult describes a bucket deletion
type DeleteBucketResult struct {
	Bucket string

	// DirectoryExisted is false when the bucket directory was already gone
	DirectoryExisted bool

	// RecordsDeleted is the number of metadata records removed
	RecordsDeleted int64
}
