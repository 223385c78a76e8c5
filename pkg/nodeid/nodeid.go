// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package nodeid reports which node stored an object.
package nodeid

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// DefaultFile is where the node identity is read from when no path is configured
const DefaultFile = "/tmp/node-id"

// Provider returns the identity of the local node. A nil identity with a
// nil error means the node has no identity configured.
type Provider interface {
	NodeID(ctx context.Context) (*string, error)
}

// FileProvider reads the node identity from a file on every call, so an
// identity written after startup is picked up.
type FileProvider struct {
	path string
}

func NewFileProvider(path string) *FileProvider {
	if path == "" {
		path = DefaultFile
	}
	return &FileProvider{path: path}
}

func (p *FileProvider) Path() string {
	return p.path
}

func (p *FileProvider) NodeID(ctx context.Context) (*string, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read node id file %s: %w", p.path, err)
	}

	id := strings.TrimSpace(string(data))
	if id == "" {
		return nil, nil
	}
	return &id, nil
}

// Static always returns the same identity. An empty name means absent.
type Static string

func (s Static) NodeID(ctx context.Context) (*string, error) {
	if s == "" {
		return nil, nil
	}
	id := string(s)
	return &id, nil
}
