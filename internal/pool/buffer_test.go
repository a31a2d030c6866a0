package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunkPool(t *testing.T) {
	p := NewChunkPool(1024)
	require.NotNil(t, p)
	assert.Equal(t, 1024, p.Size())
}

func TestChunkPool_Get(t *testing.T) {
	p := NewChunkPool(1024)

	buf := p.Get()
	require.NotNil(t, buf)
	assert.Equal(t, 1024, cap(buf))
	assert.Equal(t, 1024, len(buf))

	// Use the buffer
	copy(buf, []byte("test data"))
	assert.Equal(t, byte('t'), buf[0])

	// Return to pool
	p.Put(buf)
}

func TestChunkPool_BufferReuse(t *testing.T) {
	p := NewChunkPool(64)

	buf1 := p.Get()
	copy(buf1, []byte("first use"))
	p.Put(buf1)

	// Reacquired buffers come back at full length regardless of prior use.
	buf2 := p.Get()
	assert.Equal(t, 64, cap(buf2))
	assert.Equal(t, 64, len(buf2))

	p.Put(buf2)
}

func TestChunkPool_PutForeignCapacity(t *testing.T) {
	p := NewChunkPool(64)

	// A buffer of the wrong capacity is dropped, not pooled.
	p.Put(make([]byte, 32))

	buf := p.Get()
	assert.Equal(t, 64, cap(buf))
	p.Put(buf)
}

func TestChunkPool_ShortenedBufferRestored(t *testing.T) {
	p := NewChunkPool(64)

	buf := p.Get()
	p.Put(buf[:10])

	got := p.Get()
	assert.Equal(t, 64, len(got))
	p.Put(got)
}

func BenchmarkChunkPool_GetPut(b *testing.B) {
	p := NewChunkPool(5 * 1024 * 1024)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := p.Get()
			p.Put(buf)
		}
	})
}

func BenchmarkChunkAllocation_NewEachTime(b *testing.B) {
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := make([]byte, 5*1024*1024)
			_ = buf
		}
	})
}
