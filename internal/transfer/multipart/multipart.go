// Package multipart handles one file's multipart upload transaction:
// initiate, bounded concurrent part uploads, then complete or abort.
//
// The transaction either completes with a receipt or aborts with the
// failure that triggered rollback; no partial state is observable.
package multipart

import (
	"bytes"
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"github.com/strandbio/uplink/errors"
	"github.com/strandbio/uplink/internal/chunk"
	"github.com/strandbio/uplink/internal/s3api"
	"github.com/strandbio/uplink/uplinktypes"
)

// DefaultConcurrency bounds in-flight parts within one transaction unless
// the caller configures otherwise.
const DefaultConcurrency = 3

// Config carries the per-transaction settings resolved by the engine.
type Config struct {
	// Bucket is the destination bucket from the credential grant
	Bucket string

	// Key is the destination object key
	Key string

	// ImportID identifies the file's transaction on progress updates
	ImportID uplinktypes.ImportID

	// Concurrency bounds in-flight parts; DefaultConcurrency when <= 0
	Concurrency int

	// Encryption selects the server-side encryption mode, empty for the
	// bucket default
	Encryption uplinktypes.SSEMode

	// EncryptionKeyID is the KMS key for SSEKMS, empty for the account key
	EncryptionKeyID string

	// ContentType is the detected MIME type, empty to omit
	ContentType string

	// Callback receives one push notification per completed part
	Callback uplinktypes.ProgressCallback

	// Updates is the shared progress channel; sends never block and are
	// dropped when the channel is full or unconsumed. Nil disables channel
	// emission.
	Updates chan<- uplinktypes.ProgressUpdate

	// Logger receives lifecycle logs; nil disables logging
	Logger *slog.Logger
}

// Transaction owns one file's multipart upload session end to end: the
// session id, the part receipts, and the cumulative byte count.
type Transaction struct {
	client  s3api.S3API
	reader  *chunk.Reader
	cfg     Config
	started time.Time

	uploadID string

	mu        sync.Mutex
	parts     []awstypes.CompletedPart
	bytesSent int64
}

// New prepares a transaction for the file behind reader. The reader stays
// owned by the caller and must outlive the transaction.
func New(client s3api.S3API, reader *chunk.Reader, cfg Config) *Transaction {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Callback == nil {
		cfg.Callback = uplinktypes.NoProgress{}
	}
	return &Transaction{
		client:  client,
		reader:  reader,
		cfg:     cfg,
		started: time.Now(),
	}
}

// Run executes the whole lifecycle and returns the file's terminal outcome.
// An initiation failure is reported without cleanup (no session exists); a
// part or completion failure triggers exactly one abort, whose own failure
// is layered on the outcome rather than replacing the cause.
func (t *Transaction) Run(ctx context.Context) uplinktypes.Outcome {
	outcome := uplinktypes.Outcome{
		Path:     t.reader.Path(),
		ImportID: t.cfg.ImportID,
		Key:      t.cfg.Key,
	}

	if err := t.Initiate(ctx); err != nil {
		outcome.Err = err
		return outcome
	}

	if t.cfg.Logger != nil {
		t.cfg.Logger.InfoContext(ctx, "multipart upload initiated",
			"path", t.reader.Path(),
			"key", t.cfg.Key,
			"parts", t.reader.Count())
	}

	if err := t.UploadParts(ctx); err != nil {
		outcome.Err = err
		outcome.AbortErr = t.Abort(ctx)
		t.logAborted(ctx, outcome)
		return outcome
	}

	receipt, err := t.Complete(ctx)
	if err != nil {
		outcome.Err = err
		outcome.AbortErr = t.Abort(ctx)
		t.logAborted(ctx, outcome)
		return outcome
	}

	outcome.Receipt = receipt
	if t.cfg.Logger != nil {
		t.cfg.Logger.InfoContext(ctx, "multipart upload completed",
			"path", t.reader.Path(),
			"key", t.cfg.Key,
			"bytes", receipt.Size)
	}
	return outcome
}

func (t *Transaction) logAborted(ctx context.Context, outcome uplinktypes.Outcome) {
	if t.cfg.Logger == nil {
		return
	}
	t.cfg.Logger.ErrorContext(ctx, "multipart upload aborted",
		"path", t.reader.Path(),
		"key", t.cfg.Key,
		"error", outcome.Err,
		"abort_error", outcome.AbortErr)
}

// Initiate creates the multipart upload session. Failure here is terminal
// for the file with nothing to clean up.
func (t *Transaction) Initiate(ctx context.Context) error {
	input := &s3.CreateMultipartUploadInput{
		Bucket:            aws.String(t.cfg.Bucket),
		Key:               aws.String(t.cfg.Key),
		ChecksumAlgorithm: awstypes.ChecksumAlgorithmSha256,
	}
	if t.cfg.ContentType != "" {
		input.ContentType = aws.String(t.cfg.ContentType)
	}

	switch t.cfg.Encryption {
	case uplinktypes.SSEKMS:
		input.ServerSideEncryption = awstypes.ServerSideEncryptionAwsKms
		if t.cfg.EncryptionKeyID != "" {
			input.SSEKMSKeyId = aws.String(t.cfg.EncryptionKeyID)
		}
	case uplinktypes.SSEAES256:
		input.ServerSideEncryption = awstypes.ServerSideEncryptionAes256
	}

	output, err := t.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return errors.NewError("initiate", err).WithBucket(t.cfg.Bucket).WithKey(t.cfg.Key)
	}

	t.uploadID = aws.ToString(output.UploadId)
	if t.uploadID == "" {
		return errors.NewError("initiate", errors.ErrMissingUploadID).
			WithBucket(t.cfg.Bucket).WithKey(t.cfg.Key).
			WithMessage("backend returned no upload id")
	}
	return nil
}

// UploadParts dispatches every chunk under the transaction's concurrency
// bound. Chunk reads happen inside the bounded workers, so at most
// Concurrency chunks are in memory at once regardless of file size.
//
// On the first part failure no further parts are dispatched; parts already
// in flight run to completion on the caller's context and their results are
// discarded. The first failure is returned as the transaction's cause.
func (t *Transaction) UploadParts(ctx context.Context) error {
	if t.uploadID == "" {
		return errors.NewError("uploadPart", errors.ErrMissingUploadID).
			WithBucket(t.cfg.Bucket).WithKey(t.cfg.Key)
	}

	g, dispatchCtx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Concurrency)

	for index := 0; index < t.reader.Count(); index++ {
		if dispatchCtx.Err() != nil {
			break
		}
		index := index
		g.Go(func() error {
			// A failure may land while this worker waited for a slot.
			if dispatchCtx.Err() != nil {
				return dispatchCtx.Err()
			}

			c, err := t.reader.ChunkAt(index)
			if err != nil {
				return err
			}
			defer t.reader.Release(c)

			// The part runs on the caller's context, not the group's:
			// an in-flight part drains instead of being cancelled.
			return t.uploadPart(ctx, c)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// uploadPart performs exactly one UploadPart call for one chunk. On
// success it records the part receipt, bumps the cumulative byte count,
// and emits exactly one progress update (callback, then fire-and-forget
// channel send) before returning.
func (t *Transaction) uploadPart(ctx context.Context, c chunk.FileChunk) error {
	input := &s3.UploadPartInput{
		Bucket:         aws.String(t.cfg.Bucket),
		Key:            aws.String(t.cfg.Key),
		UploadId:       aws.String(t.uploadID),
		PartNumber:     aws.Int32(c.PartNumber),
		Body:           bytes.NewReader(c.Data),
		ChecksumSHA256: aws.String(c.Checksum),
	}

	output, err := t.client.UploadPart(ctx, input)
	if err != nil {
		return errors.NewError("uploadPart", err).WithBucket(t.cfg.Bucket).WithKey(t.cfg.Key)
	}

	t.mu.Lock()
	t.parts = append(t.parts, awstypes.CompletedPart{
		ETag:           output.ETag,
		PartNumber:     aws.Int32(c.PartNumber),
		ChecksumSHA256: output.ChecksumSHA256,
	})
	t.bytesSent += int64(len(c.Data))
	sent := t.bytesSent
	t.mu.Unlock()

	update := uplinktypes.ProgressUpdate{
		PartNumber: c.PartNumber,
		Multipart:  true,
		ImportID:   t.cfg.ImportID,
		Path:       t.reader.Path(),
		BytesSent:  sent,
		TotalBytes: t.reader.Size(),
	}
	t.cfg.Callback.OnUpdate(update)
	if t.cfg.Updates != nil {
		select {
		case t.cfg.Updates <- update:
		default:
		}
	}
	return nil
}

// Complete finalizes the session from the accumulated part receipts.
// Receipts are sorted ascending by part number first: completion order
// across the network is arbitrary and the backend rejects unsorted lists.
func (t *Transaction) Complete(ctx context.Context) (*uplinktypes.UploadReceipt, error) {
	if t.uploadID == "" {
		return nil, errors.NewError("complete", errors.ErrMissingUploadID).
			WithBucket(t.cfg.Bucket).WithKey(t.cfg.Key)
	}

	t.mu.Lock()
	parts := make([]awstypes.CompletedPart, len(t.parts))
	copy(parts, t.parts)
	bytesSent := t.bytesSent
	t.mu.Unlock()

	sort.Slice(parts, func(i, j int) bool {
		return aws.ToInt32(parts[i].PartNumber) < aws.ToInt32(parts[j].PartNumber)
	})

	output, err := t.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(t.cfg.Bucket),
		Key:      aws.String(t.cfg.Key),
		UploadId: aws.String(t.uploadID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{
			Parts: parts,
		},
	})
	if err != nil {
		return nil, errors.NewError("complete", err).WithBucket(t.cfg.Bucket).WithKey(t.cfg.Key)
	}

	return &uplinktypes.UploadReceipt{
		Key:       t.cfg.Key,
		Size:      bytesSent,
		ETag:      aws.ToString(output.ETag),
		VersionID: aws.ToString(output.VersionId),
		Location:  aws.ToString(output.Location),
		Duration:  time.Since(t.started),
	}, nil
}

// Abort rolls the session back. The failure that triggered the abort stays
// with the caller; an abort failure is returned separately so both causes
// surface, since the server-side session state is ambiguous once abort fails.
func (t *Transaction) Abort(ctx context.Context) error {
	if t.uploadID == "" {
		return errors.NewError("abort", errors.ErrMissingUploadID).
			WithBucket(t.cfg.Bucket).WithKey(t.cfg.Key)
	}

	_, err := t.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(t.cfg.Bucket),
		Key:      aws.String(t.cfg.Key),
		UploadId: aws.String(t.uploadID),
	})
	if err != nil {
		return errors.NewError("abort", err).WithBucket(t.cfg.Bucket).WithKey(t.cfg.Key)
	}
	return nil
}
