package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/kakshahq/kaksha-api/internal/models"
	"github.com/kakshahq/kaksha-api/internal/observability"
	"github.com/kakshahq/kaksha-api/pkg/blobstore"
)

var (
	// ErrUploadTooLarge indicates a file exceeded the configured size limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrTooManyFiles indicates more files arrived than the endpoint accepts.
	ErrTooManyFiles = errors.New("too many files attached")
	// ErrNoFilesAttached indicates a mandatory upload arrived without files.
	ErrNoFilesAttached = errors.New("no files attached")
)

// uploadLimits bounds a multipart upload before it reaches the blob store.
type uploadLimits struct {
	maxBytes int64
	maxFiles int
}

func limitsFrom(maxMB, maxFiles int) uploadLimits {
	if maxMB <= 0 {
		maxMB = 10
	}
	if maxFiles <= 0 {
		maxFiles = 3
	}
	return uploadLimits{
		maxBytes: int64(maxMB) * 1024 * 1024,
		maxFiles: maxFiles,
	}
}

// storeMultipartFiles validates the incoming files and streams each into the
// blob store, returning the file records to embed on the owning aggregate.
// The kind label distinguishes attachments, submissions and folder uploads in
// the metrics.
func storeMultipartFiles(ctx context.Context, store blobstore.Store, files []*multipart.FileHeader, uploadedBy uint, kind string, limits uploadLimits) ([]models.FileMeta, error) {
	if len(files) == 0 {
		observability.UploadRejected().WithLabelValues("empty").Inc()
		return nil, ErrNoFilesAttached
	}
	if len(files) > limits.maxFiles {
		observability.UploadRejected().WithLabelValues("count").Inc()
		return nil, ErrTooManyFiles
	}

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	records := make([]models.FileMeta, 0, len(files))
	for _, header := range files {
		record, err := storeOneFile(ctx, store, header, uploadedBy, limits.maxBytes)
		if err != nil {
			return nil, err
		}
		observability.ObjectsStored().WithLabelValues(kind).Inc()
		records = append(records, record)
	}

	return records, nil
}

func storeOneFile(ctx context.Context, store blobstore.Store, header *multipart.FileHeader, uploadedBy uint, maxBytes int64) (models.FileMeta, error) {
	if header.Size > maxBytes {
		observability.UploadRejected().WithLabelValues("size").Inc()
		return models.FileMeta{}, ErrUploadTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return models.FileMeta{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(src, maxBytes+1)); err != nil {
		return models.FileMeta{}, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(buf.Len()) > maxBytes {
		observability.UploadRejected().WithLabelValues("size").Inc()
		return models.FileMeta{}, ErrUploadTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(buf.Bytes()).String()
	}

	object, err := store.Put(ctx, header.Filename, contentType, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		return models.FileMeta{}, err
	}

	return models.FileMeta{
		ID:          uuid.NewString(),
		BlobID:      object.ID,
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        object.Size,
		UploadedBy:  uploadedBy,
		UploadedAt:  time.Now().UTC(),
	}, nil
}
