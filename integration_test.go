//go:build integration
// +build integration

package uplink_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandbio/uplink"
	"github.com/strandbio/uplink/internal/testutil"
	"github.com/strandbio/uplink/uplinktypes"
)

const mb = 1024 * 1024

// fetchObject downloads an object back for verification.
func fetchObject(t *testing.T, client *s3.Client, bucket, key string) []byte {
	t.Helper()
	output, err := client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	require.NoError(t, err)
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	require.NoError(t, err)
	return data
}

// TestIntegrationBatchUpload exercises the full engine against LocalStack:
// small files through the put path, large files through the multipart
// lifecycle, with round-trip content verification.
func TestIntegrationBatchUpload(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := testutil.NewLocalStackContainer(ctx, t)
	require.NoError(t, err)
	defer func() { _ = container.Terminate(ctx) }()

	rawClient, err := container.GetS3Client(ctx)
	require.NoError(t, err)

	bucket := testutil.GenerateTestBucketName("uplink-it")
	require.NoError(t, testutil.CreateTestBucketInLocalStack(ctx, rawClient, bucket))
	defer func() { _ = testutil.CleanupTestBucketInLocalStack(ctx, rawClient, bucket) }()

	fsys := testutil.NewMemFS()
	smallContent := testutil.SeedTestFile(t, fsys, "/small.bin", 64*1024, 1)
	largeContent := testutil.SeedTestFile(t, fsys, "/large.bin", 12*mb, 2)

	uploader, err := uplink.New(container.GrantFor(bucket, "it/data"),
		uplink.WithEndpoint(container.Endpoint()),
		uplink.WithForcePathStyle(true),
		uplink.WithFilesystem(fsys),
		// LocalStack does not validate KMS keys the way AWS does; AES256
		// keeps the encryption header honest without a key dependency.
		uplink.WithEncryption(uplinktypes.SSEAES256),
	)
	require.NoError(t, err)

	progress, err := uploader.Progress()
	require.NoError(t, err)

	outcomes, err := uploader.UploadFiles(ctx,
		uplinktypes.FileUpload{Path: "/small.bin"},
		uplinktypes.FileUpload{Path: "/large.bin"},
	)
	require.NoError(t, err)

	results := make(map[string]uplinktypes.Outcome)
	for outcome := range outcomes {
		results[outcome.Path] = outcome
	}
	require.Len(t, results, 2)

	t.Run("small file arrives via put", func(t *testing.T) {
		outcome := results["/small.bin"]
		require.True(t, outcome.Completed(), "outcome error: %v", outcome.Err)
		assert.Equal(t, int64(64*1024), outcome.Receipt.Size)

		stored := fetchObject(t, rawClient, bucket, outcome.Key)
		assert.True(t, bytes.Equal(smallContent, stored))
	})

	t.Run("large file reassembles from parts", func(t *testing.T) {
		outcome := results["/large.bin"]
		require.True(t, outcome.Completed(), "outcome error: %v", outcome.Err)
		assert.Equal(t, int64(12*mb), outcome.Receipt.Size)
		assert.NotEmpty(t, outcome.Receipt.ETag)

		stored := fetchObject(t, rawClient, bucket, outcome.Key)
		assert.True(t, bytes.Equal(largeContent, stored), "reassembled bytes differ from source")
	})

	t.Run("progress observed the multipart upload", func(t *testing.T) {
		progress.Poll()
		update, ok := progress.Snapshot()["/large.bin"]
		require.True(t, ok)
		assert.True(t, update.Multipart)
		assert.Equal(t, int64(12*mb), update.BytesSent)
		assert.True(t, update.Completed())
	})
}

// TestIntegrationFailureIsolation verifies a failed file reports its own
// terminal outcome while an unrelated upload lands untouched.
func TestIntegrationFailureIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := testutil.NewLocalStackContainer(ctx, t)
	require.NoError(t, err)
	defer func() { _ = container.Terminate(ctx) }()

	rawClient, err := container.GetS3Client(ctx)
	require.NoError(t, err)

	bucket := testutil.GenerateTestBucketName("uplink-abort")
	require.NoError(t, testutil.CreateTestBucketInLocalStack(ctx, rawClient, bucket))
	defer func() { _ = testutil.CleanupTestBucketInLocalStack(ctx, rawClient, bucket) }()

	fsys := testutil.NewMemFS()
	okContent := testutil.SeedTestFile(t, fsys, "/ok.bin", 32*1024, 3)
	// The doomed file targets a bucket that does not exist, so its
	// transaction fails at initiation.
	testutil.SeedTestFile(t, fsys, "/doomed.bin", 6*mb, 4)

	okUploader, err := uplink.New(container.GrantFor(bucket, "it/data"),
		uplink.WithEndpoint(container.Endpoint()),
		uplink.WithForcePathStyle(true),
		uplink.WithFilesystem(fsys),
		uplink.WithEncryption(uplinktypes.SSEAES256),
	)
	require.NoError(t, err)

	doomedUploader, err := uplink.New(container.GrantFor("no-such-bucket", "it/data"),
		uplink.WithEndpoint(container.Endpoint()),
		uplink.WithForcePathStyle(true),
		uplink.WithFilesystem(fsys),
		uplink.WithEncryption(uplinktypes.SSEAES256),
	)
	require.NoError(t, err)

	okOutcomes, err := okUploader.UploadFiles(ctx, uplinktypes.FileUpload{Path: "/ok.bin"})
	require.NoError(t, err)
	doomedOutcomes, err := doomedUploader.UploadFiles(ctx, uplinktypes.FileUpload{Path: "/doomed.bin"})
	require.NoError(t, err)

	okOutcome := <-okOutcomes
	require.True(t, okOutcome.Completed(), "outcome error: %v", okOutcome.Err)
	stored := fetchObject(t, rawClient, bucket, okOutcome.Key)
	assert.True(t, bytes.Equal(okContent, stored))

	doomedOutcome := <-doomedOutcomes
	assert.True(t, doomedOutcome.Aborted())
	assert.Error(t, doomedOutcome.Err)
}
