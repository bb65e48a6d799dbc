// Package secmem holds PIN candidates in page-locked memory and zeroes
// them when the caller is done.
package secmem

import (
	"runtime"
	"sync"
)

// Buffer is a byte slice for secrets. The backing memory is mlocked when
// the platform allows it and is zeroed on Destroy.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	locked bool
}

// New allocates a zeroed Buffer of the given size.
func New(size int) *Buffer {
	b := &Buffer{data: make([]byte, size)}
	b.locked = mlock(b.data)

	runtime.SetFinalizer(b, func(s *Buffer) {
		s.Destroy()
	})

	return b
}

// Take copies src into a new Buffer and wipes src.
func Take(src []byte) *Buffer {
	b := New(len(src))
	copy(b.data, src)
	Wipe(src)
	return b
}

// Bytes returns the underlying slice, or nil after Destroy.
// The slice aliases the buffer and must not be retained.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// Len returns the length of the data.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// IsLocked reports whether the memory is page-locked.
func (b *Buffer) IsLocked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Destroy zeroes and releases the memory. Safe to call multiple times.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data == nil {
		return
	}

	Wipe(b.data)
	if b.locked {
		munlock(b.data)
		b.locked = false
	}
	b.data = nil

	runtime.SetFinalizer(b, nil)
}

// Wipe zeroes p in place.
func Wipe(p []byte) {
	for i := range p {
		p[i] = 0
	}
}
