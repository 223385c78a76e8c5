// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"syscall"
)

// DiskUsage returns total and used bytes of the filesystem holding path.
func DiskUsage(path string) (total, used uint64, err error) {
	fs := syscall.Statfs_t{}
	if err := syscall.Statfs(path, &fs); err != nil {
		return 0, 0, err
	}
	total = fs.Blocks * uint64(fs.Bsize)
	used = total - (uint64(fs.Bavail) * uint64(fs.Bsize))
	return total, used, nil
}
