//go:build !windows

package secmem

import (
	"golang.org/x/sys/unix"
)

// mlock pins the pages backing data so they are never swapped out.
// Returns false when the platform or rlimit refuses.
func mlock(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return unix.Mlock(data) == nil
}

func munlock(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Munlock(data)
}
