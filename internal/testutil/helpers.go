// Package testutil provides test helper functions.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// StringPtr returns a pointer to the given string.
// This is useful for AWS SDK inputs that require string pointers.
func StringPtr(s string) *string {
	return aws.String(s)
}

// Int64Ptr returns a pointer to the given int64.
// This is useful for AWS SDK inputs that require int64 pointers.
func Int64Ptr(i int64) *int64 {
	return aws.Int64(i)
}

// Int32Ptr returns a pointer to the given int32.
// This is useful for AWS SDK inputs that require int32 pointers.
func Int32Ptr(i int32) *int32 {
	return aws.Int32(i)
}

// GenerateRandomData generates random bytes of the specified size.
// This is useful for creating test file content.
func GenerateRandomData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(rand.Intn(256))
	}
	return data
}

// GenerateTestKey generates a test S3 object key with optional prefix.
// This helps ensure test isolation by using unique keys.
func GenerateTestKey(prefix string) string {
	timestamp := time.Now().UnixNano()
	random := rand.Int63n(100000)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return fmt.Sprintf("%stest-object-%d-%d", prefix, timestamp, random)
}

// GenerateTestBucketName generates a valid test bucket name.
// Bucket names must be DNS-compliant and globally unique.
func GenerateTestBucketName(prefix string) string {
	timestamp := time.Now().Unix()
	random := rand.Int31n(10000)
	name := fmt.Sprintf("%s-%d-%d", prefix, timestamp, random)
	// Ensure DNS compliance
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// CreatePutObjectOutput creates a test PutObjectOutput structure.
// This is useful for mocking the single-shot put path.
func CreatePutObjectOutput(etag string) *s3.PutObjectOutput {
	return &s3.PutObjectOutput{
		ETag: StringPtr(etag),
	}
}

// CreateMultipartUploadOutput creates a test CreateMultipartUploadOutput
// carrying the given session id.
func CreateMultipartUploadOutput(uploadID string) *s3.CreateMultipartUploadOutput {
	return &s3.CreateMultipartUploadOutput{
		UploadId: StringPtr(uploadID),
	}
}

// CreateUploadPartOutput creates a test UploadPartOutput with a part etag
// derived from the part number so receipts stay distinguishable.
func CreateUploadPartOutput(partNumber int32) *s3.UploadPartOutput {
	return &s3.UploadPartOutput{
		ETag: StringPtr(fmt.Sprintf(`"etag-part-%d"`, partNumber)),
	}
}

// CreateCompleteMultipartUploadOutput creates a test completion receipt.
func CreateCompleteMultipartUploadOutput(bucket, key, etag string) *s3.CompleteMultipartUploadOutput {
	return &s3.CompleteMultipartUploadOutput{
		Bucket:   StringPtr(bucket),
		Key:      StringPtr(key),
		ETag:     StringPtr(etag),
		Location: StringPtr(fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, key)),
	}
}
