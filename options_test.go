package uplink

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandbio/uplink/internal/testutil"
	"github.com/strandbio/uplink/uplinktypes"
)

func TestOptionsApply(t *testing.T) {
	httpClient := &http.Client{}
	awsCfg := &aws.Config{Region: "eu-west-1"}
	logger := slog.Default()
	cb := &testutil.RecordingCallback{}
	fsys := testutil.NewMemFS()

	cfg := &uplinktypes.ClientConfig{}
	for _, opt := range []uplinktypes.Option{
		WithRegion("us-west-2"),
		WithEndpoint("http://localhost:4566"),
		WithForcePathStyle(true),
		WithRetryMaxAttempts(4),
		WithRetryMode("adaptive"),
		WithChunkSize(8 * mb),
		WithPartConcurrency(7),
		WithFileConcurrency(9),
		WithProgressBufferSize(64),
		WithEncryption(uplinktypes.SSEAES256),
		WithProgressCallback(cb),
		WithLogger(logger),
		WithCustomHTTPClient(httpClient),
		WithAWSConfig(awsCfg),
		WithFilesystem(fsys),
	} {
		opt(cfg)
	}

	assert.Equal(t, "us-west-2", cfg.Region)
	assert.Equal(t, "http://localhost:4566", cfg.Endpoint)
	assert.True(t, cfg.ForcePathStyle)
	assert.Equal(t, 4, cfg.RetryMaxAttempts)
	assert.Equal(t, "adaptive", cfg.RetryMode)
	assert.Equal(t, int64(8*mb), cfg.ChunkSize)
	assert.Equal(t, 7, cfg.PartConcurrency)
	assert.Equal(t, 9, cfg.FileConcurrency)
	assert.Equal(t, 64, cfg.ProgressBufferSize)
	assert.Equal(t, uplinktypes.SSEAES256, cfg.Encryption)
	assert.Same(t, cb, cfg.Callback.(*testutil.RecordingCallback))
	assert.Same(t, logger, cfg.Logger)
	assert.Same(t, httpClient, cfg.CustomHTTPClient)
	assert.Same(t, awsCfg, cfg.CustomAWSConfig)
	assert.NotNil(t, cfg.Filesystem)
}

func TestOptionsIgnoreInvalidValues(t *testing.T) {
	cfg := &uplinktypes.ClientConfig{
		RetryMaxAttempts:   1,
		ChunkSize:          DefaultChunkSize,
		PartConcurrency:    3,
		FileConcurrency:    DefaultFileConcurrency,
		ProgressBufferSize: DefaultProgressBufferSize,
	}
	for _, opt := range []uplinktypes.Option{
		WithRetryMaxAttempts(0),
		WithChunkSize(-1),
		WithPartConcurrency(0),
		WithFileConcurrency(-3),
		WithProgressBufferSize(0),
		WithProgressCallback(nil),
	} {
		opt(cfg)
	}

	assert.Equal(t, 1, cfg.RetryMaxAttempts)
	assert.Equal(t, int64(DefaultChunkSize), cfg.ChunkSize)
	assert.Equal(t, 3, cfg.PartConcurrency)
	assert.Equal(t, DefaultFileConcurrency, cfg.FileConcurrency)
	assert.Equal(t, DefaultProgressBufferSize, cfg.ProgressBufferSize)
	assert.Nil(t, cfg.Callback)
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := resolveConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, int64(DefaultChunkSize), cfg.ChunkSize)
	assert.Equal(t, 3, cfg.PartConcurrency)
	assert.Equal(t, DefaultFileConcurrency, cfg.FileConcurrency)
	assert.Equal(t, DefaultProgressBufferSize, cfg.ProgressBufferSize)
	assert.Equal(t, 1, cfg.RetryMaxAttempts, "single-attempt semantics by default")
	assert.Equal(t, uplinktypes.SSEKMS, cfg.Encryption)
	assert.IsType(t, uplinktypes.NoProgress{}, cfg.Callback)
	assert.NotNil(t, cfg.Filesystem)
	assert.Nil(t, cfg.Logger)
}
