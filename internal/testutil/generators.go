// Package testutil provides test data generators.
package testutil

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/require"
)

// TestDataGenerator provides methods for generating test data.
type TestDataGenerator struct {
	rand *rand.Rand
}

// NewTestDataGenerator creates a new test data generator with a seeded random source.
func NewTestDataGenerator(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// GenerateFileContent generates deterministic pseudo-random file content.
func (g *TestDataGenerator) GenerateFileContent(size int) []byte {
	data := make([]byte, size)
	g.rand.Read(data)
	return data
}

// GenerateCompletedParts generates completed multipart upload parts in
// ascending part-number order.
func (g *TestDataGenerator) GenerateCompletedParts(count int) []types.CompletedPart {
	parts := make([]types.CompletedPart, count)

	for i := 0; i < count; i++ {
		parts[i] = types.CompletedPart{
			PartNumber: Int32Ptr(int32(i + 1)),
			ETag:       StringPtr(fmt.Sprintf(`"%x"`, g.rand.Int63())),
		}
	}

	return parts
}

// GenerateUploadID generates a plausible multipart upload session id.
func (g *TestDataGenerator) GenerateUploadID() string {
	return fmt.Sprintf("upload-%016x", g.rand.Int63())
}

// NewMemFS returns an empty in-memory filesystem for engine tests.
func NewMemFS() fs.Filesystem {
	return billy.NewInMemoryFS()
}

// WriteTestFile writes content to path on fsys, failing the test on error.
func WriteTestFile(t *testing.T, fsys fs.Filesystem, path string, content []byte) {
	t.Helper()
	require.NoError(t, fsys.WriteFile(path, content, 0o644))
}

// SeedTestFile generates size bytes of deterministic content, writes it to
// path on fsys, and returns the content for later verification.
func SeedTestFile(t *testing.T, fsys fs.Filesystem, path string, size int, seed int64) []byte {
	t.Helper()
	content := NewTestDataGenerator(seed).GenerateFileContent(size)
	WriteTestFile(t, fsys, path, content)
	return content
}
