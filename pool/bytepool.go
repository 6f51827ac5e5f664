// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import (
	"sync"
	"sync/atomic"
)

// BytePool hands out fixed-size byte slices and recycles them.
type BytePool struct {
	pool sync.Pool
	size int

	inUse int64
}

// NewBytePool returns a pool of size-byte slices.
func NewBytePool(size int) *BytePool {
	if size <= 0 {
		size = 1
	}
	b := &BytePool{size: size}
	b.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return b
}

// Size returns the length of slices handed out by GetBuffer.
func (b *BytePool) Size() int { return b.size }

// GetBuffer returns a buffer from the pool.
func (b *BytePool) GetBuffer() []byte {
	atomic.AddInt64(&b.inUse, 1)
	return (*b.pool.Get().(*[]byte))[:b.size]
}

// PutBuffer returns a buffer to the pool. Slices of a foreign capacity are
// left to the GC.
func (b *BytePool) PutBuffer(buf []byte) {
	if cap(buf) != b.size {
		return
	}
	atomic.AddInt64(&b.inUse, -1)
	buf = buf[:b.size]
	b.pool.Put(&buf)
}

// InUse returns the number of buffers handed out and not yet returned.
func (b *BytePool) InUse() int64 { return atomic.LoadInt64(&b.inUse) }
