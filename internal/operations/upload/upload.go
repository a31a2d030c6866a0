// Package upload performs the single-shot put path for files below the
// multipart part-size floor. A put has no session lifecycle: the object
// either lands in one call or the call fails, with nothing to abort.
package upload

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/strandbio/uplink/errors"
	"github.com/strandbio/uplink/internal/chunk"
	"github.com/strandbio/uplink/internal/s3api"
	"github.com/strandbio/uplink/uplinktypes"
)

// Config carries the per-put settings resolved by the engine.
type Config struct {
	// Bucket is the destination bucket from the credential grant
	Bucket string

	// Key is the destination object key
	Key string

	// ImportID identifies the file's transaction on progress updates
	ImportID uplinktypes.ImportID

	// Path is the local path reported on progress updates
	Path string

	// Encryption selects the server-side encryption mode, empty for the
	// bucket default
	Encryption uplinktypes.SSEMode

	// EncryptionKeyID is the KMS key for SSEKMS, empty for the account key
	EncryptionKeyID string

	// ContentType is the detected MIME type, empty to omit
	ContentType string

	// Callback receives one terminal push notification for the put
	Callback uplinktypes.ProgressCallback

	// Logger receives lifecycle logs; nil disables logging
	Logger *slog.Logger
}

// Putter uploads small files with a single PutObject call.
type Putter struct {
	client s3api.S3API
}

// New creates a Putter on the given backend client.
func New(client s3api.S3API) *Putter {
	return &Putter{client: client}
}

// Put uploads data in one call and returns the backend's receipt. On
// success it emits exactly one terminal progress update through the
// callback (part number 1, non-multipart); the progress channel is fed
// only by multipart part uploads.
func (p *Putter) Put(ctx context.Context, cfg Config, data []byte) (*uplinktypes.UploadReceipt, error) {
	started := time.Now()
	size := int64(len(data))

	input := &s3.PutObjectInput{
		Bucket:         aws.String(cfg.Bucket),
		Key:            aws.String(cfg.Key),
		Body:           bytes.NewReader(data),
		ContentLength:  aws.Int64(size),
		ChecksumSHA256: aws.String(chunk.Checksum(data)),
	}
	if cfg.ContentType != "" {
		input.ContentType = aws.String(cfg.ContentType)
	}

	switch cfg.Encryption {
	case uplinktypes.SSEKMS:
		input.ServerSideEncryption = awstypes.ServerSideEncryptionAwsKms
		if cfg.EncryptionKeyID != "" {
			input.SSEKMSKeyId = aws.String(cfg.EncryptionKeyID)
		}
	case uplinktypes.SSEAES256:
		input.ServerSideEncryption = awstypes.ServerSideEncryptionAes256
	}

	output, err := p.client.PutObject(ctx, input)
	if err != nil {
		return nil, errors.NewError("put", err).WithBucket(cfg.Bucket).WithKey(cfg.Key)
	}

	if cfg.Callback != nil {
		cfg.Callback.OnUpdate(uplinktypes.ProgressUpdate{
			PartNumber: 1,
			Multipart:  false,
			ImportID:   cfg.ImportID,
			Path:       cfg.Path,
			BytesSent:  size,
			TotalBytes: size,
		})
	}

	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "object uploaded",
			"path", cfg.Path,
			"key", cfg.Key,
			"bytes", size)
	}

	return &uplinktypes.UploadReceipt{
		Key:       cfg.Key,
		Size:      size,
		ETag:      aws.ToString(output.ETag),
		VersionID: aws.ToString(output.VersionId),
		Duration:  time.Since(started),
	}, nil
}
