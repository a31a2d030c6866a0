package chunk

import (
	"bytes"
	"sync"
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uplinkerrors "github.com/strandbio/uplink/errors"
	"github.com/strandbio/uplink/internal/pool"
)

// testContent produces deterministic, position-dependent bytes so chunk
// boundaries that shift off by one fail loudly.
func testContent(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func newTestReader(t *testing.T, content []byte, chunkSize int64, buffers *pool.ChunkPool) *Reader {
	t.Helper()

	memFS := billy.NewInMemoryFS()
	require.NoError(t, memFS.WriteFile("/data.bin", content, 0o644))

	reader, err := NewReader(memFS, "/data.bin", chunkSize, buffers)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })
	return reader
}

func TestReaderChunkMath(t *testing.T) {
	tests := []struct {
		name        string
		fileSize    int
		chunkSize   int64
		wantCount   int
		wantLastLen int
	}{
		{
			name:        "zero-byte file still yields one chunk",
			fileSize:    0,
			chunkSize:   5,
			wantCount:   1,
			wantLastLen: 0,
		},
		{
			name:        "exact multiple",
			fileSize:    10,
			chunkSize:   5,
			wantCount:   2,
			wantLastLen: 5,
		},
		{
			name:        "short final chunk",
			fileSize:    12,
			chunkSize:   5,
			wantCount:   3,
			wantLastLen: 2,
		},
		{
			name:        "single full chunk",
			fileSize:    5,
			chunkSize:   5,
			wantCount:   1,
			wantLastLen: 5,
		},
		{
			name:        "file smaller than chunk",
			fileSize:    3,
			chunkSize:   100,
			wantCount:   1,
			wantLastLen: 3,
		},
		{
			name:        "one-byte chunks",
			fileSize:    7,
			chunkSize:   1,
			wantCount:   7,
			wantLastLen: 1,
		},
		{
			name:        "remainder of one",
			fileSize:    7,
			chunkSize:   3,
			wantCount:   3,
			wantLastLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := testContent(tt.fileSize)
			reader := newTestReader(t, content, tt.chunkSize, nil)

			assert.Equal(t, tt.wantCount, reader.Count())
			assert.Equal(t, int64(tt.fileSize), reader.Size())

			// Concatenating chunks in part-number order must reproduce the
			// file exactly.
			var assembled []byte
			for i := 0; i < reader.Count(); i++ {
				c, err := reader.ChunkAt(i)
				require.NoError(t, err)
				assert.Equal(t, int32(i+1), c.PartNumber)
				if i == reader.Count()-1 {
					assert.Len(t, c.Data, tt.wantLastLen)
				} else {
					assert.Len(t, c.Data, int(tt.chunkSize))
				}
				assembled = append(assembled, c.Data...)
			}
			assert.True(t, bytes.Equal(content, assembled))
		})
	}
}

func TestReaderEmptyFileChecksum(t *testing.T) {
	reader := newTestReader(t, nil, 5, nil)

	require.Equal(t, 1, reader.Count())
	c, err := reader.ChunkAt(0)
	require.NoError(t, err)

	assert.Empty(t, c.Data)
	assert.Equal(t, int32(1), c.PartNumber)
	assert.Equal(t, Checksum(nil), c.Checksum)
}

func TestReaderChecksumCoversOwnBytesOnly(t *testing.T) {
	content := testContent(10)
	reader := newTestReader(t, content, 4, nil)

	first, err := reader.ChunkAt(0)
	require.NoError(t, err)
	second, err := reader.ChunkAt(1)
	require.NoError(t, err)
	last, err := reader.ChunkAt(2)
	require.NoError(t, err)

	assert.Equal(t, Checksum(content[0:4]), first.Checksum)
	assert.Equal(t, Checksum(content[4:8]), second.Checksum)
	assert.Equal(t, Checksum(content[8:10]), last.Checksum)
	assert.NotEqual(t, first.Checksum, second.Checksum)
}

func TestReaderChunkAtOutOfRange(t *testing.T) {
	reader := newTestReader(t, testContent(10), 5, nil)

	_, err := reader.ChunkAt(-1)
	assert.True(t, uplinkerrors.IsInvalidInput(err))

	_, err = reader.ChunkAt(2)
	assert.True(t, uplinkerrors.IsInvalidInput(err))
}

func TestNewReaderInvalidChunkSize(t *testing.T) {
	memFS := billy.NewInMemoryFS()
	require.NoError(t, memFS.WriteFile("/data.bin", []byte("abc"), 0o644))

	_, err := NewReader(memFS, "/data.bin", 0, nil)
	assert.True(t, uplinkerrors.IsInvalidInput(err))
}

func TestNewReaderMissingFile(t *testing.T) {
	memFS := billy.NewInMemoryFS()

	_, err := NewReader(memFS, "/nope.bin", 5, nil)
	assert.Error(t, err)
}

func TestReaderWithPooledBuffers(t *testing.T) {
	content := testContent(12)
	buffers := pool.NewChunkPool(5)
	reader := newTestReader(t, content, 5, buffers)

	var assembled []byte
	for i := 0; i < reader.Count(); i++ {
		c, err := reader.ChunkAt(i)
		require.NoError(t, err)
		assembled = append(assembled, c.Data...)
		reader.Release(c)
	}

	assert.True(t, bytes.Equal(content, assembled))
}

func TestReaderConcurrentChunkAt(t *testing.T) {
	content := testContent(64)
	reader := newTestReader(t, content, 7, nil)

	chunks := make([][]byte, reader.Count())
	var wg sync.WaitGroup
	for i := 0; i < reader.Count(); i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			c, err := reader.ChunkAt(idx)
			assert.NoError(t, err)
			chunks[idx] = c.Data
		}(i)
	}
	wg.Wait()

	var assembled []byte
	for _, part := range chunks {
		assembled = append(assembled, part...)
	}
	assert.True(t, bytes.Equal(content, assembled))
}

func TestChecksumEmptySequence(t *testing.T) {
	// SHA-256 of the empty byte sequence, base64-encoded.
	assert.Equal(t, "47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU=", Checksum(nil))
	assert.Equal(t, Checksum(nil), Checksum([]byte{}))
}
