// Package testutil provides a builder for creating mock S3 clients.
package testutil

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MockBuilder provides a fluent interface for building MockS3Client instances.
type MockBuilder struct {
	client *MockS3Client
}

// NewMockBuilder creates a new MockBuilder.
func NewMockBuilder() *MockBuilder {
	return &MockBuilder{
		client: &MockS3Client{},
	}
}

// Build returns the configured MockS3Client.
func (b *MockBuilder) Build() *MockS3Client {
	return b.client
}

// WithPutObject configures the PutObject behavior.
func (b *MockBuilder) WithPutObject(
	fn func(context.Context, *s3.PutObjectInput) (*s3.PutObjectOutput, error),
) *MockBuilder {
	b.client.PutObjectFunc = func(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithCreateMultipartUpload configures the CreateMultipartUpload behavior.
func (b *MockBuilder) WithCreateMultipartUpload(
	fn func(context.Context, *s3.CreateMultipartUploadInput) (*s3.CreateMultipartUploadOutput, error),
) *MockBuilder {
	b.client.CreateMultipartUploadFunc = func(ctx context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithUploadPart configures the UploadPart behavior.
func (b *MockBuilder) WithUploadPart(
	fn func(context.Context, *s3.UploadPartInput) (*s3.UploadPartOutput, error),
) *MockBuilder {
	b.client.UploadPartFunc = func(ctx context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithCompleteMultipartUpload configures the CompleteMultipartUpload behavior.
func (b *MockBuilder) WithCompleteMultipartUpload(
	fn func(context.Context, *s3.CompleteMultipartUploadInput) (*s3.CompleteMultipartUploadOutput, error),
) *MockBuilder {
	b.client.CompleteMultipartUploadFunc = func(ctx context.Context, params *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithAbortMultipartUpload configures the AbortMultipartUpload behavior.
func (b *MockBuilder) WithAbortMultipartUpload(
	fn func(context.Context, *s3.AbortMultipartUploadInput) (*s3.AbortMultipartUploadOutput, error),
) *MockBuilder {
	b.client.AbortMultipartUploadFunc = func(ctx context.Context, params *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithSuccessfulPut configures the mock to accept every put.
func (b *MockBuilder) WithSuccessfulPut() *MockBuilder {
	b.client.PutObjectFunc = func(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		if params.Body != nil {
			_, _ = io.Copy(io.Discard, params.Body)
		}
		return CreatePutObjectOutput(`"test-etag"`), nil
	}
	return b
}

// WithFailedPut configures the mock to reject every put with err.
func (b *MockBuilder) WithFailedPut(err error) *MockBuilder {
	b.client.PutObjectFunc = func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, err
	}
	return b
}

// WithSuccessfulMultipart configures the mock for a fully successful
// multipart lifecycle under the given session id.
func (b *MockBuilder) WithSuccessfulMultipart(uploadID string) *MockBuilder {
	b.client.CreateMultipartUploadFunc = func(_ context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
		return CreateMultipartUploadOutput(uploadID), nil
	}

	b.client.UploadPartFunc = func(_ context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		if params.Body != nil {
			_, _ = io.Copy(io.Discard, params.Body)
		}
		return CreateUploadPartOutput(aws.ToInt32(params.PartNumber)), nil
	}

	b.client.CompleteMultipartUploadFunc = func(_ context.Context, params *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
		return CreateCompleteMultipartUploadOutput(
			aws.ToString(params.Bucket), aws.ToString(params.Key), `"multipart-etag"`), nil
	}

	b.client.AbortMultipartUploadFunc = func(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
		return &s3.AbortMultipartUploadOutput{}, nil
	}

	return b
}

// WithFailingPart makes exactly the given part number fail with err while
// every other part succeeds. Layer over WithSuccessfulMultipart.
func (b *MockBuilder) WithFailingPart(partNumber int32, err error) *MockBuilder {
	b.client.UploadPartFunc = func(_ context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		if aws.ToInt32(params.PartNumber) == partNumber {
			return nil, err
		}
		if params.Body != nil {
			_, _ = io.Copy(io.Discard, params.Body)
		}
		return CreateUploadPartOutput(aws.ToInt32(params.PartNumber)), nil
	}
	return b
}

// WithFailedAbort makes the abort call itself fail with err, leaving the
// server-side session state ambiguous. Layer over WithSuccessfulMultipart.
func (b *MockBuilder) WithFailedAbort(err error) *MockBuilder {
	b.client.AbortMultipartUploadFunc = func(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
		return nil, err
	}
	return b
}

// WithAbortCounter routes aborts through counter so tests can assert that
// abort is called exactly once. Layer over WithSuccessfulMultipart.
func (b *MockBuilder) WithAbortCounter(counter *atomic.Int64) *MockBuilder {
	b.client.AbortMultipartUploadFunc = func(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
		counter.Add(1)
		return &s3.AbortMultipartUploadOutput{}, nil
	}
	return b
}
