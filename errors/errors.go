// Package errors provides error types and handling for upload engine operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents an upload operation error with context about the operation
// that failed. It wraps the underlying AWS SDK error with additional context
// for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "initiate", "uploadPart", "abort")
	Op string

	// Bucket is the S3 bucket name (if applicable)
	Bucket string

	// Key is the S3 object key (if applicable)
	Key string

	// Err is the underlying error from the AWS SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("uplink.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("uplink.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("uplink.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("uplink.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewBucketError creates a new Error with bucket context.
func NewBucketError(op, bucket string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Err:    err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// Sentinel errors for common upload failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrMissingUploadID indicates that a multipart operation was invoked on a
	// transaction that has no upload session id. This is a precondition
	// violation, not a retryable fault: no network call was made.
	ErrMissingUploadID = errors.New("uplink: missing multipart upload id")

	// ErrNoFiles indicates that a batch upload was requested with no files
	ErrNoFiles = errors.New("uplink: no files to upload")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("uplink: invalid input")

	// ErrInvalidCredentials indicates that the upload credential grant is
	// missing required fields or has expired
	ErrInvalidCredentials = errors.New("uplink: invalid credentials")

	// ErrProgressClaimed indicates that the progress poller has already been
	// handed to a consumer; there is exactly one consumer per uploader
	ErrProgressClaimed = errors.New("uplink: progress poller already claimed")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("uplink: access denied")

	// ErrTimeout indicates that the operation timed out
	ErrTimeout = errors.New("uplink: operation timeout")
)

// IsMissingUploadID checks if an error indicates a missing upload session id.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsMissingUploadID(err error) bool {
	return errors.Is(err, ErrMissingUploadID)
}

// IsNoFiles checks if an error indicates an empty batch.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsNoFiles(err error) bool {
	return errors.Is(err, ErrNoFiles)
}

// IsInvalidInput checks if an error indicates invalid input.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsInvalidCredentials checks if an error indicates an unusable credential grant.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}
