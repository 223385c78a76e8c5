// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"hash/fnv"
	"sync"
)

const numLockStripes = 256

// KeyLock serializes work on the same key using a fixed set of striped
// mutexes. Distinct keys may share a stripe, so holders must not take a
// second key lock while holding one.
type KeyLock struct {
	stripes [numLockStripes]sync.Mutex
}

func NewKeyLock() *KeyLock {
	return &KeyLock{}
}

func (kl *KeyLock) stripe(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &kl.stripes[h.Sum32()%numLockStripes]
}

// Lock acquires the lock for key and returns its release function.
func (kl *KeyLock) Lock(key string) func() {
	m := kl.stripe(key)
	m.Lock()
	return m.Unlock
}
