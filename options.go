// Package uplink provides functional options for configuring the upload
// engine. Options follow the functional options pattern for clean,
// composable configuration.
package uplink

import (
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/strandbio/uplink/uplinktypes"
)

// WithRegion overrides the region carried by the credential grant.
func WithRegion(region string) uplinktypes.Option {
	return func(c *uplinktypes.ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint points the engine at a custom S3 endpoint.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) uplinktypes.Option {
	return func(c *uplinktypes.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithForcePathStyle forces path-style URLs instead of virtual-hosted style.
// Most S3-compatible test endpoints require this.
// Default is false (uses virtual-hosted style).
func WithForcePathStyle(forcePathStyle bool) uplinktypes.Option {
	return func(c *uplinktypes.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithRetryMaxAttempts sets the SDK-level attempt budget per backend call.
// The engine itself never re-dispatches a failed part; the default of 1
// gives single-attempt semantics, and anything above it is the caller's
// retry policy applied at the transport layer.
func WithRetryMaxAttempts(attempts int) uplinktypes.Option {
	return func(c *uplinktypes.ClientConfig) {
		if attempts > 0 {
			c.RetryMaxAttempts = attempts
		}
	}
}

// WithRetryMode sets the SDK retry mode.
// Options are "standard", "adaptive". Only meaningful together with a
// retry budget above one attempt.
func WithRetryMode(mode string) uplinktypes.Option {
	return func(c *uplinktypes.ClientConfig) {
		c.RetryMode = mode
	}
}

// WithChunkSize sets the multipart chunk size in bytes.
// Default is 5MB, which is also the backend's minimum part size; New
// rejects smaller values.
func WithChunkSize(size int64) uplinktypes.Option {
	return func(c *uplinktypes.ClientConfig) {
		if size > 0 {
			c.ChunkSize = size
		}
	}
}

// WithPartConcurrency bounds in-flight parts within one file's multipart
// transaction. Default is 3 concurrent parts.
func WithPartConcurrency(concurrency int) uplinktypes.Option {
	return func(c *uplinktypes.ClientConfig) {
		if concurrency > 0 {
			c.PartConcurrency = concurrency
		}
	}
}

// WithFileConcurrency bounds how many files of a batch upload at once.
// Independent of per-file part concurrency. Default is 5 concurrent files.
func WithFileConcurrency(concurrency int) uplinktypes.Option {
	return func(c *uplinktypes.ClientConfig) {
		if concurrency > 0 {
			c.FileConcurrency = concurrency
		}
	}
}

// WithProgressBufferSize sets the capacity of the progress channel.
// A fuller channel drops updates rather than blocking part uploads.
func WithProgressBufferSize(size int) uplinktypes.Option {
	return func(c *uplinktypes.ClientConfig) {
		if size > 0 {
			c.ProgressBufferSize = size
		}
	}
}

// WithEncryption selects the server-side encryption mode for uploaded
// objects. Default is SSEKMS with the key id from the credential grant.
func WithEncryption(mode uplinktypes.SSEMode) uplinktypes.Option {
	return func(c *uplinktypes.ClientConfig) {
		c.Encryption = mode
	}
}

// WithProgressCallback installs a push-based progress callback invoked on
// every completed part and small-file put. Default is a no-op.
func WithProgressCallback(callback uplinktypes.ProgressCallback) uplinktypes.Option {
	return func(c *uplinktypes.ClientConfig) {
		if callback != nil {
			c.Callback = callback
		}
	}
}

// WithLogger installs a structured logger for transaction lifecycle events.
// A nil logger (the default) disables logging entirely.
func WithLogger(logger *slog.Logger) uplinktypes.Option {
	return func(c *uplinktypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithCustomHTTPClient allows providing a custom HTTP client.
// This gives full control over HTTP behavior including timeouts and proxies.
func WithCustomHTTPClient(client *http.Client) uplinktypes.Option {
	return func(c *uplinktypes.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithAWSConfig allows providing a custom AWS configuration, overriding
// the one derived from the credential grant. Use this when you need
// fine-grained control over AWS SDK configuration.
func WithAWSConfig(config *aws.Config) uplinktypes.Option {
	return func(c *uplinktypes.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithFilesystem sets a custom filesystem implementation for file access.
// This allows using in-memory filesystems for testing.
// If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem fs.Filesystem) uplinktypes.Option {
	return func(c *uplinktypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}
