// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"time"

	"github.com/google/uuid"
)

// ObjectRecord binds a (bucket, key) pair to the file holding its bytes.
// There is at most one record per pair.
type ObjectRecord struct {
	ID     uuid.UUID `json:"id"`
	Bucket string    `json:"bucket"`
	Key    string    `json:"key"`

	// NodeName is the storage node that wrote the bytes, nil if the node
	// identity was not configured at write time.
	NodeName *string `json:"node_name,omitempty"`

	// Path is always derived from (Bucket, Key) and the storage root.
	Path string `json:"path"`

	// Size is measured from disk after the write, never taken from the client.
	Size int64 `json:"size"`

	// CreatedAt is refreshed on every create or overwrite.
	CreatedAt time.Time `json:"created_at"`
}

// Node returns the node name or "" when it is unset.
func (r *ObjectRecord) Node() string {
	if r.NodeName == nil {
		return ""
	}
	return *r.NodeName
}

// Clone returns a deep copy of the record.
func (r *ObjectRecord) Clone() *ObjectRecord {
	c := *r
	if r.NodeName != nil {
		n := *r.NodeName
		c.NodeName = &n
	}
	return &c
}
