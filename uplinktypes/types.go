// Package uplinktypes provides shared type definitions for the upload engine.
package uplinktypes

import (
	"log/slog"
	"math"
	"net/http"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/strandbio/uplink/errors"
)

// SSEMode represents the server-side encryption mode applied to uploaded objects.
type SSEMode string

// Predefined server-side encryption modes
const (
	// SSEKMS encrypts objects with AWS KMS-managed keys (default)
	SSEKMS SSEMode = "aws:kms"

	// SSEAES256 encrypts objects with S3-managed keys
	SSEAES256 SSEMode = "AES256"
)

// ImportID identifies one file's upload transaction within the platform.
// The platform normally issues one per file at preview time; the engine
// generates one when the caller leaves it empty.
type ImportID string

// NewImportID returns a freshly generated import identifier.
func NewImportID() ImportID {
	return ImportID(uuid.NewString())
}

// String returns the identifier as a plain string.
func (id ImportID) String() string {
	return string(id)
}

// Credential is the temporary, scoped grant the platform issues for one
// upload batch. It carries both the signing material and the destination.
type Credential struct {
	// AccessKey is the temporary AWS access key id
	AccessKey string

	// SecretKey is the temporary AWS secret access key
	SecretKey string

	// SessionToken is the STS session token accompanying the key pair
	SessionToken string

	// Expiration is when the grant stops being valid
	Expiration time.Time

	// Region is the region of the destination bucket
	Region string

	// Bucket is the destination bucket
	Bucket string

	// KeyPrefix is the key namespace the grant is scoped to
	// (for example "user@example.org/data")
	KeyPrefix string

	// EncryptionKeyID is the KMS key id objects must be encrypted with,
	// empty when the bucket default key applies
	EncryptionKeyID string
}

// Validate reports whether the grant carries everything the engine needs.
func (c *Credential) Validate() error {
	if c.AccessKey == "" || c.SecretKey == "" {
		return errors.NewError("credential", errors.ErrInvalidCredentials).
			WithMessage("access key and secret key are required")
	}
	if c.Bucket == "" {
		return errors.NewError("credential", errors.ErrInvalidCredentials).
			WithMessage("destination bucket is required")
	}
	if !c.Expiration.IsZero() && time.Now().After(c.Expiration) {
		return errors.NewError("credential", errors.ErrInvalidCredentials).
			WithMessage("grant has expired")
	}
	return nil
}

// StorageKey builds the destination object key for one file:
// <key-prefix>/<import-id>/<file-name>. S3 keys always use forward slashes.
func StorageKey(prefix string, id ImportID, fileName string) string {
	if prefix == "" {
		return path.Join(id.String(), fileName)
	}
	return path.Join(prefix, id.String(), fileName)
}

// FileUpload describes one file submitted to a batch.
type FileUpload struct {
	// Path is the local filesystem path of the file
	Path string

	// ImportID scopes the file's transaction; generated when empty
	ImportID ImportID

	// Name overrides the destination file name; defaults to the base of Path
	Name string
}

// ProgressUpdate is an immutable snapshot of one file's upload progress,
// emitted once per completed part (and once per small-file put).
type ProgressUpdate struct {
	// PartNumber is the 1-based part that just finished
	PartNumber int32

	// Multipart is false for the single-shot put path
	Multipart bool

	// ImportID identifies the file's transaction
	ImportID ImportID

	// Path is the local path of the file being uploaded
	Path string

	// BytesSent is the cumulative byte count sent for the file so far
	BytesSent int64

	// TotalBytes is the file size, zero when unknown
	TotalBytes int64
}

// PercentDone derives percent-complete from the byte counts.
// It is NaN when the total size is unknown; callers must treat NaN as an
// explicit "unknown" state rather than 0 or 100.
func (u ProgressUpdate) PercentDone() float64 {
	if u.TotalBytes == 0 {
		return math.NaN()
	}
	return float64(u.BytesSent) / float64(u.TotalBytes) * 100
}

// Completed reports whether the file's bytes have fully arrived.
// An unknown total (NaN percent) never reads as completed.
func (u ProgressUpdate) Completed() bool {
	return u.PercentDone() >= 100
}

// ProgressCallback receives push-based progress notifications.
// Implementations must be safe for concurrent use: parts of one file finish
// on different goroutines.
type ProgressCallback interface {
	// OnUpdate is called after every completed part and after each
	// small-file put
	OnUpdate(update ProgressUpdate)
}

// NoProgress is the no-op ProgressCallback used when the caller does not
// care about progress.
type NoProgress struct{}

// OnUpdate discards the update.
func (NoProgress) OnUpdate(ProgressUpdate) {}

// UploadReceipt is the backend's proof of a completed upload.
type UploadReceipt struct {
	// Key is the destination object key
	Key string

	// Size is the number of bytes uploaded
	Size int64

	// ETag is the entity tag of the assembled object
	ETag string

	// VersionID is the object version when bucket versioning is enabled
	VersionID string

	// Location is the URI of the assembled object (multipart only)
	Location string

	// Duration is how long the upload took
	Duration time.Duration
}

// Outcome is the terminal state of one file's upload transaction. Every
// submitted file produces exactly one Outcome; no partial state is
// observable.
type Outcome struct {
	// Path is the local path of the file
	Path string

	// ImportID identifies the file's transaction
	ImportID ImportID

	// Key is the destination object key the transaction targeted
	Key string

	// Receipt is the completion proof, set only when the upload completed
	Receipt *UploadReceipt

	// Err is the cause that terminated the transaction, nil on success.
	// For multipart files the session was aborted; for small files the put
	// simply failed.
	Err error

	// AbortErr reports a failed abort call, layered on Err. When set, the
	// server-side multipart state is ambiguous and both causes matter.
	AbortErr error
}

// Completed reports whether the file arrived intact.
func (o Outcome) Completed() bool {
	return o.Err == nil
}

// Aborted reports whether the transaction terminated with a failure.
func (o Outcome) Aborted() bool {
	return o.Err != nil
}

// ClientConfig holds configuration for the upload engine.
type ClientConfig struct {
	// Region overrides the credential grant's region
	Region string

	// Endpoint points the client at a custom S3 endpoint (LocalStack, MinIO)
	Endpoint string

	// ForcePathStyle forces path-style addressing (required by most
	// S3-compatible test endpoints)
	ForcePathStyle bool

	// RetryMaxAttempts is the SDK-level attempt budget per call.
	// The engine itself never re-dispatches a failed part; 1 means
	// single-attempt semantics.
	RetryMaxAttempts int

	// RetryMode is the SDK retry mode ("standard", "adaptive")
	RetryMode string

	// ChunkSize is the multipart chunk size in bytes
	ChunkSize int64

	// PartConcurrency bounds in-flight parts within one transaction
	PartConcurrency int

	// FileConcurrency bounds files uploading at once within a batch
	FileConcurrency int

	// ProgressBufferSize is the capacity of the progress channel
	ProgressBufferSize int

	// Encryption selects the server-side encryption mode
	Encryption SSEMode

	// Callback receives push-based progress updates
	Callback ProgressCallback

	// Logger receives structured lifecycle logs; nil disables logging
	Logger *slog.Logger

	// CustomHTTPClient replaces the SDK's HTTP client
	CustomHTTPClient *http.Client

	// CustomAWSConfig replaces the derived AWS configuration entirely
	CustomAWSConfig *aws.Config

	// Filesystem abstracts local file access for chunking and puts
	Filesystem fs.Filesystem
}

// Option is a functional option for configuring the upload engine.
type Option func(*ClientConfig)
