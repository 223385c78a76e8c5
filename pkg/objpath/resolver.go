// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package objpath maps (bucket, key) pairs onto the storage tree.
//
// Every object lives at <root>/<bucket>/<key>. Keys are hierarchical: each
// "/" in a key becomes a directory level on disk. Trailing separators are
// not significant, so "a/b/" and "a/b" address the same object.
package objpath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidBucket = errors.New("invalid bucket name")
	ErrInvalidKey    = errors.New("invalid object key")
)

// Location is a resolved object address
type Location struct {
	Bucket string
	Key    string // normalized

	// BucketDir is <root>/<bucket>
	BucketDir string
	// PrefixDir is the directory holding the object file. It equals
	// BucketDir for keys without a "/".
	PrefixDir string
	// Path is the absolute file path of the object
	Path string
}

// NormalizeKey strips every trailing "/" from key.
func NormalizeKey(key string) string {
	return strings.TrimRight(key, "/")
}

// Resolver computes object paths under a storage root. It never touches
// the filesystem.
type Resolver struct {
	root string
}

func NewResolver(root string) (*Resolver, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &Resolver{root: abs}, nil
}

// Root returns the absolute storage root
func (r *Resolver) Root() string {
	return r.root
}

// BucketDir returns <root>/<bucket>.
func (r *Resolver) BucketDir(bucket string) (string, error) {
	if err := validateBucket(bucket); err != nil {
		return "", err
	}
	return filepath.Join(r.root, bucket), nil
}

// Resolve returns the file path for bucket and key.
func (r *Resolver) Resolve(bucket, key string) (string, error) {
	loc, err := r.Split(bucket, key)
	if err != nil {
		return "", err
	}
	return loc.Path, nil
}

// Split normalizes key and decomposes the object address into the
// directories that must exist and the final file path.
func (r *Resolver) Split(bucket, key string) (Location, error) {
	bucketDir, err := r.BucketDir(bucket)
	if err != nil {
		return Location{}, err
	}

	key = NormalizeKey(key)
	if err := validateKey(key); err != nil {
		return Location{}, err
	}

	path := filepath.Join(bucketDir, filepath.FromSlash(key))
	if !strings.HasPrefix(path, bucketDir+string(filepath.Separator)) {
		return Location{}, fmt.Errorf("%w: %q escapes bucket", ErrInvalidKey, key)
	}

	return Location{
		Bucket:    bucket,
		Key:       key,
		BucketDir: bucketDir,
		PrefixDir: filepath.Dir(path),
		Path:      path,
	}, nil
}

func validateBucket(bucket string) error {
	switch {
	case bucket == "", bucket == ".", bucket == "..":
		return fmt.Errorf("%w: %q", ErrInvalidBucket, bucket)
	case strings.ContainsAny(bucket, "/\\\x00"):
		return fmt.Errorf("%w: %q", ErrInvalidBucket, bucket)
	}
	return nil
}

func validateKey(key string) error {
	if key == "" || strings.Contains(key, "\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	// Empty and dot segments are cleaned away on disk, so they would let
	// distinct keys share one file
	for _, seg := range strings.Split(key, "/") {
		switch seg {
		case "", ".", "..":
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
