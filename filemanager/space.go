// SPDX-License-Identifier: MIT

package filemanager

import "syscall"

// freeSpace returns the bytes available to unprivileged writers on the
// filesystem containing path.
func freeSpace(path string) (int64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
