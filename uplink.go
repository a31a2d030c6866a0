// Package uplink provides the batch upload scheduler and core operations.
package uplink

import (
	"context"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/strandbio/uplink/errors"
	"github.com/strandbio/uplink/internal/chunk"
	"github.com/strandbio/uplink/internal/operations/upload"
	"github.com/strandbio/uplink/internal/pool"
	"github.com/strandbio/uplink/internal/s3api"
	"github.com/strandbio/uplink/internal/transfer/multipart"
	"github.com/strandbio/uplink/uplinktypes"
)

// DefaultContentType is used when content type detection fails.
const DefaultContentType = "application/octet-stream"

// Uploader fans a batch of files across a bounded worker pool: files below
// the chunk size take a single-shot put, the rest run a full multipart
// transaction. Every submitted file reaches exactly one terminal Outcome.
type Uploader struct {
	client  s3api.S3API
	cred    uplinktypes.Credential
	cfg     *uplinktypes.ClientConfig
	buffers *pool.ChunkPool
	updates chan uplinktypes.ProgressUpdate

	mu       sync.Mutex
	progress *Progress
	claimed  bool
}

func newUploader(client s3api.S3API, cred uplinktypes.Credential, cfg *uplinktypes.ClientConfig) *Uploader {
	updates := make(chan uplinktypes.ProgressUpdate, cfg.ProgressBufferSize)
	return &Uploader{
		client:   client,
		cred:     cred,
		cfg:      cfg,
		buffers:  pool.NewChunkPool(int(cfg.ChunkSize)),
		updates:  updates,
		progress: newProgress(updates),
	}
}

// Progress hands out the uploader's single poll-driven progress consumer.
// There is exactly one consumer per uploader; a second claim fails with
// ErrProgressClaimed.
func (u *Uploader) Progress() (*Progress, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.claimed {
		return nil, errors.NewError("progress", errors.ErrProgressClaimed)
	}
	u.claimed = true
	return u.progress, nil
}

// UploadFiles uploads the batch and returns an unordered stream of
// per-file outcomes. Files proceed independently under the file
// concurrency bound; one file's failure never cancels a sibling. The
// stream closes once every file has reached a terminal state.
func (u *Uploader) UploadFiles(
	ctx context.Context,
	files ...uplinktypes.FileUpload,
) (<-chan uplinktypes.Outcome, error) {
	if len(files) == 0 {
		return nil, errors.NewError("uploadFiles", errors.ErrNoFiles)
	}

	outcomes := make(chan uplinktypes.Outcome, len(files))

	var g errgroup.Group
	g.SetLimit(u.cfg.FileConcurrency)
	go func() {
		for _, file := range files {
			file := file
			g.Go(func() error {
				outcomes <- u.uploadFile(ctx, file)
				return nil
			})
		}
		_ = g.Wait()
		close(outcomes)

		if u.cfg.Logger != nil {
			u.cfg.Logger.InfoContext(ctx, "batch finished", "files", len(files))
		}
	}()

	return outcomes, nil
}

// uploadFile runs one file to its terminal outcome.
func (u *Uploader) uploadFile(ctx context.Context, file uplinktypes.FileUpload) uplinktypes.Outcome {
	id := file.ImportID
	if id == "" {
		id = uplinktypes.NewImportID()
	}
	name := file.Name
	if name == "" {
		name = filepath.Base(file.Path)
	}
	key := uplinktypes.StorageKey(u.cred.KeyPrefix, id, name)

	outcome := uplinktypes.Outcome{
		Path:     file.Path,
		ImportID: id,
		Key:      key,
	}

	info, err := u.cfg.Filesystem.Stat(file.Path)
	if err != nil {
		outcome.Err = errors.NewError("uploadFiles", err).
			WithKey(key).WithMessage("failed to stat file")
		return outcome
	}

	if info.Size() < u.cfg.ChunkSize {
		return u.putFile(ctx, outcome)
	}
	return u.uploadMultipart(ctx, outcome)
}

// putFile is the single-shot path for files below the part-size floor:
// no session, nothing to abort.
func (u *Uploader) putFile(ctx context.Context, outcome uplinktypes.Outcome) uplinktypes.Outcome {
	data, err := u.cfg.Filesystem.ReadFile(outcome.Path)
	if err != nil {
		outcome.Err = errors.NewError("put", err).
			WithKey(outcome.Key).WithMessage("failed to read file")
		return outcome
	}

	receipt, err := upload.New(u.client).Put(ctx, upload.Config{
		Bucket:          u.cred.Bucket,
		Key:             outcome.Key,
		ImportID:        outcome.ImportID,
		Path:            outcome.Path,
		Encryption:      u.cfg.Encryption,
		EncryptionKeyID: u.cred.EncryptionKeyID,
		ContentType:     u.detectContentType(outcome.Path, data),
		Callback:        u.cfg.Callback,
		Logger:          u.cfg.Logger,
	}, data)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	outcome.Receipt = receipt
	return outcome
}

func (u *Uploader) uploadMultipart(ctx context.Context, outcome uplinktypes.Outcome) uplinktypes.Outcome {
	reader, err := chunk.NewReader(u.cfg.Filesystem, outcome.Path, u.cfg.ChunkSize, u.buffers)
	if err != nil {
		// Same footing as an initiation failure: no session exists yet.
		outcome.Err = err
		return outcome
	}
	defer func() { _ = reader.Close() }()

	tx := multipart.New(u.client, reader, multipart.Config{
		Bucket:          u.cred.Bucket,
		Key:             outcome.Key,
		ImportID:        outcome.ImportID,
		Concurrency:     u.cfg.PartConcurrency,
		Encryption:      u.cfg.Encryption,
		EncryptionKeyID: u.cred.EncryptionKeyID,
		ContentType:     u.detectContentType(outcome.Path, nil),
		Callback:        u.cfg.Callback,
		Updates:         u.updates,
		Logger:          u.cfg.Logger,
	})
	return tx.Run(ctx)
}

// detectContentType sniffs leading bytes when available and falls back to
// the file extension. data may be nil, in which case a 512-byte prefix is
// read from the filesystem.
func (u *Uploader) detectContentType(filePath string, data []byte) string {
	if data == nil {
		file, err := u.cfg.Filesystem.Open(filePath)
		if err != nil {
			return contentTypeFromExtension(filePath)
		}
		defer func() { _ = file.Close() }()

		buf := make([]byte, 512)
		n, _ := file.Read(buf)
		data = buf[:n]
	}

	if len(data) > 0 {
		if mt := mimetype.Detect(data); mt != nil {
			return mt.String()
		}
	}
	return contentTypeFromExtension(filePath)
}

func contentTypeFromExtension(filePath string) string {
	ext := strings.ToLower(path.Ext(filePath))
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}
