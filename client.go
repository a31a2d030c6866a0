// Package uplink provides client initialization and configuration.
//
// An Uploader is built from the temporary credential grant the platform
// issues for one batch; the grant carries both the signing material and
// the destination bucket and key prefix.
package uplink

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	"github.com/strandbio/uplink/errors"
	"github.com/strandbio/uplink/internal/chunk"
	"github.com/strandbio/uplink/internal/s3api"
	"github.com/strandbio/uplink/internal/transfer/multipart"
	"github.com/strandbio/uplink/uplinktypes"
)

// Engine defaults applied by New when the caller configures nothing else.
const (
	// DefaultChunkSize is the multipart chunk size, equal to the backend's
	// minimum part size
	DefaultChunkSize = chunk.MinChunkSize

	// DefaultFileConcurrency bounds files uploading at once within a batch
	DefaultFileConcurrency = 5

	// DefaultProgressBufferSize is the progress channel capacity
	DefaultProgressBufferSize = 256
)

// New builds an Uploader from a platform-issued credential grant.
// The grant's signing material becomes a static credentials provider; its
// bucket and key prefix scope every upload in the batch.
//
// Example:
//
//	uploader, err := uplink.New(cred,
//	    uplink.WithPartConcurrency(4),
//	    uplink.WithProgressCallback(cb),
//	)
func New(cred uplinktypes.Credential, opts ...uplinktypes.Option) (*Uploader, error) {
	if err := cred.Validate(); err != nil {
		return nil, err
	}

	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}

	var awsCfg aws.Config
	if cfg.CustomAWSConfig != nil {
		awsCfg = *cfg.CustomAWSConfig
	} else {
		awsCfg = aws.Config{
			Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
				cred.AccessKey, cred.SecretKey, cred.SessionToken)),
		}
	}

	applyRegion(&awsCfg, cfg, cred.Region)
	applyRetry(&awsCfg, cfg)

	return newUploader(s3.NewFromConfig(awsCfg, s3ClientOptions(cfg)...), cred, cfg), nil
}

// NewFromEnvironment builds an Uploader on the default AWS credential
// chain instead of a platform grant. Intended for operational tooling and
// integration tests that talk to a bucket directly.
func NewFromEnvironment(
	ctx context.Context,
	bucket, keyPrefix string,
	opts ...uplinktypes.Option,
) (*Uploader, error) {
	if bucket == "" {
		return nil, errors.NewError("client", errors.ErrInvalidInput).
			WithMessage("destination bucket is required")
	}

	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.NewError("client", err).WithMessage("failed to load AWS configuration")
	}

	applyRegion(&awsCfg, cfg, "")
	applyRetry(&awsCfg, cfg)

	cred := uplinktypes.Credential{
		Bucket:    bucket,
		KeyPrefix: keyPrefix,
		Region:    awsCfg.Region,
	}
	return newUploader(s3.NewFromConfig(awsCfg, s3ClientOptions(cfg)...), cred, cfg), nil
}

// NewWithClient builds an Uploader on a caller-supplied backend client.
// This is primarily used for testing with mocked clients.
func NewWithClient(
	client s3api.S3API,
	cred uplinktypes.Credential,
	opts ...uplinktypes.Option,
) (*Uploader, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}
	return newUploader(client, cred, cfg), nil
}

// resolveConfig applies the options over engine defaults and validates
// the result.
func resolveConfig(opts []uplinktypes.Option) (*uplinktypes.ClientConfig, error) {
	cfg := &uplinktypes.ClientConfig{
		RetryMaxAttempts:   1,
		ChunkSize:          DefaultChunkSize,
		PartConcurrency:    multipart.DefaultConcurrency,
		FileConcurrency:    DefaultFileConcurrency,
		ProgressBufferSize: DefaultProgressBufferSize,
		Encryption:         uplinktypes.SSEKMS,
		Callback:           uplinktypes.NoProgress{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	// The backend rejects parts below its floor, so a smaller chunk size
	// can only ever produce doomed transactions.
	if cfg.ChunkSize < chunk.MinChunkSize {
		return nil, errors.NewError("client", errors.ErrInvalidInput).
			WithMessage("chunk size is below the 5MB multipart minimum")
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = billy.NewOSFS("/")
	}
	return cfg, nil
}

func applyRegion(awsCfg *aws.Config, cfg *uplinktypes.ClientConfig, grantRegion string) {
	switch {
	case cfg.Region != "":
		awsCfg.Region = cfg.Region
	case awsCfg.Region != "":
	case grantRegion != "":
		awsCfg.Region = grantRegion
	default:
		awsCfg.Region = "us-east-1"
	}
}

func applyRetry(awsCfg *aws.Config, cfg *uplinktypes.ClientConfig) {
	if cfg.RetryMaxAttempts > 0 {
		awsCfg.RetryMaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.RetryMode != "" {
		awsCfg.RetryMode = aws.RetryMode(cfg.RetryMode)
	}
}

func s3ClientOptions(cfg *uplinktypes.ClientConfig) []func(*s3.Options) {
	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	if cfg.CustomHTTPClient != nil {
		httpClient := cfg.CustomHTTPClient
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}
	return s3Opts
}

// Filesystem returns the filesystem the uploader reads files from.
func (u *Uploader) Filesystem() fs.Filesystem {
	return u.cfg.Filesystem
}

// Credential returns the grant the uploader was built from.
func (u *Uploader) Credential() uplinktypes.Credential {
	return u.cred
}
