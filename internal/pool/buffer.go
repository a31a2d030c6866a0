// Package pool provides memory management optimizations.
// Chunk buffers are reused across part uploads so allocation stays flat
// under bounded concurrency regardless of file count.
package pool

import (
	"sync"
)

// ChunkPool manages reusable byte buffers of one fixed capacity, sized to
// the engine's chunk size. At most partConcurrency buffers are live per
// transaction, so the pool keeps the working set small.
type ChunkPool struct {
	size int
	pool *sync.Pool
}

// NewChunkPool creates a pool handing out buffers of the given capacity.
func NewChunkPool(size int) *ChunkPool {
	return &ChunkPool{
		size: size,
		pool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		},
	}
}

// Size returns the capacity of buffers managed by this pool.
func (p *ChunkPool) Size() int {
	return p.size
}

// Get returns a buffer with length equal to the pool's chunk size.
// The caller is responsible for calling Put to return the buffer to the pool.
func (p *ChunkPool) Get() []byte {
	bufPtr := p.pool.Get().(*[]byte)
	return (*bufPtr)[:p.size]
}

// Put returns a buffer to the pool. Buffers whose capacity does not match
// the pool's chunk size are dropped rather than pooled.
// The buffer should not be used after calling Put.
func (p *ChunkPool) Put(buf []byte) {
	if cap(buf) != p.size {
		return
	}
	buf = buf[:p.size]
	p.pool.Put(&buf)
}
