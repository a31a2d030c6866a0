// Package chunk partitions local files into fixed-size, checksummed chunks
// for multipart upload.
//
// A file of size S and chunk size C yields max(1, ceil(S/C)) chunks: every
// chunk is exactly C bytes except the final one, which holds the remainder.
// A zero-byte file yields exactly one empty chunk so it still maps onto a
// single part slot.
package chunk

import (
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/strandbio/uplink/errors"
	"github.com/strandbio/uplink/internal/pool"
)

// MinChunkSize is the backend's minimum multipart part size (5 MiB).
// Only the final chunk of a file, or the single chunk of an empty file,
// may be smaller. The engine enforces this floor at the configuration
// boundary; the reader itself accepts any chunk size of at least one byte.
const MinChunkSize = 5 * 1024 * 1024

// FileChunk is one contiguous piece of a file staged for upload.
// Data remains valid until the chunk is released back to its reader.
type FileChunk struct {
	// PartNumber is the chunk's 1-based position within the transaction
	PartNumber int32

	// Data holds exactly the chunk's bytes
	Data []byte

	// Checksum is the base64-encoded SHA-256 digest of Data, the encoding
	// the backend's per-part integrity check consumes
	Checksum string
}

// Reader partitions one file into fixed-size chunks. The reader owns the
// open file handle; chunks address the file with ReadAt so concurrent
// workers can read without coordinating seek positions.
type Reader struct {
	file      fs.File
	path      string
	size      int64
	chunkSize int64
	count     int
	buffers   *pool.ChunkPool
}

// NewReader opens path on fsys and prepares chunking with the given chunk
// size. A nil buffer pool disables reuse and allocates per chunk.
func NewReader(fsys fs.Filesystem, path string, chunkSize int64, buffers *pool.ChunkPool) (*Reader, error) {
	if chunkSize < 1 {
		return nil, errors.NewError("chunk", errors.ErrInvalidInput).
			WithMessage("chunk size must be at least one byte")
	}

	file, err := fsys.Open(path)
	if err != nil {
		return nil, errors.NewError("chunk", err).WithMessage("failed to open file")
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.NewError("chunk", err).WithMessage("failed to stat file")
	}

	size := info.Size()
	return &Reader{
		file:      file,
		path:      path,
		size:      size,
		chunkSize: chunkSize,
		count:     chunkCount(size, chunkSize),
		buffers:   buffers,
	}, nil
}

// chunkCount returns max(1, ceil(size/chunkSize)) so an empty file still
// occupies one part slot.
func chunkCount(size, chunkSize int64) int {
	if size == 0 {
		return 1
	}
	return int((size + chunkSize - 1) / chunkSize)
}

// Path returns the local path the reader was opened on.
func (r *Reader) Path() string {
	return r.path
}

// Size returns the file size captured when the reader was opened.
func (r *Reader) Size() int64 {
	return r.size
}

// Count returns the number of chunks the file partitions into.
func (r *Reader) Count() int {
	return r.count
}

// ChunkAt reads the chunk at the given zero-based index. Chunks address
// the file at index*chunkSize; the final chunk may be short. Safe for
// concurrent use across indexes.
func (r *Reader) ChunkAt(index int) (FileChunk, error) {
	if index < 0 || index >= r.count {
		return FileChunk{}, errors.NewError("chunk", errors.ErrInvalidInput).
			WithMessage("chunk index out of range")
	}

	offset := int64(index) * r.chunkSize
	length := r.chunkSize
	if offset+length > r.size {
		length = r.size - offset
	}

	var buf []byte
	if r.buffers != nil {
		buf = r.buffers.Get()
	} else {
		buf = make([]byte, length)
	}
	data := buf[:length]

	if length > 0 {
		n, err := r.file.ReadAt(data, offset)
		if err != nil && !(err == io.EOF && int64(n) == length) {
			r.release(buf)
			return FileChunk{}, errors.NewError("chunk", err).
				WithMessage("failed to read file chunk")
		}
	}

	return FileChunk{
		PartNumber: int32(index) + 1,
		Data:       data,
		Checksum:   Checksum(data),
	}, nil
}

// Release returns a chunk's buffer to the pool once the upload call has
// consumed it. The chunk's Data must not be used afterwards.
func (r *Reader) Release(c FileChunk) {
	r.release(c.Data)
}

func (r *Reader) release(buf []byte) {
	if r.buffers != nil {
		r.buffers.Put(buf[:cap(buf)])
	}
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Checksum computes the base64-encoded SHA-256 digest of data. The empty
// input yields the digest of the empty byte sequence, not an empty string.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}
