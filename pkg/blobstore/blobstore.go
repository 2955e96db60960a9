package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// ErrNotFound indicates the requested object does not exist in the store.
var ErrNotFound = errors.New("object not found")

// Object describes a stored binary blob.
type Object struct {
	ID          string
	Filename    string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}

// Store abstracts the binary object store used for attachments, submissions
// and file-manager uploads. The store performs no garbage collection: the
// record referencing an object is responsible for deleting it.
type Store interface {
	Put(ctx context.Context, filename, contentType string, reader io.Reader) (Object, error)
	Open(ctx context.Context, id string) (Object, io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

type blobRecord struct {
	ID          string `gorm:"primaryKey;size:36"`
	Filename    string `gorm:"size:255"`
	ContentType string `gorm:"size:128"`
	Size        int64
	Data        []byte
	CreatedAt   time.Time
}

func (blobRecord) TableName() string { return "blobs" }

// Service implements Store on top of a relational blobs table.
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
	tracer trace.Tracer
}

// New prepares the blobs table and returns a ready store. Initialization is
// completed here, before any traffic is served.
func New(db *gorm.DB, logger zerolog.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("blobstore requires a database handle")
	}

	if err := db.AutoMigrate(&blobRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate blobs table: %w", err)
	}

	return &Service{
		db:     db,
		logger: logger.With().Str("component", "blobstore").Logger(),
		tracer: otel.Tracer("github.com/kakshahq/kaksha-api/pkg/blobstore"),
	}, nil
}

// Put streams the reader into a new object and returns its descriptor.
func (s *Service) Put(ctx context.Context, filename, contentType string, reader io.Reader) (Object, error) {
	ctx, span := s.tracer.Start(ctx, "blobstore.put")
	defer span.End()

	data, err := io.ReadAll(reader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return Object{}, fmt.Errorf("failed to read object data: %w", err)
	}

	record := blobRecord{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return Object{}, fmt.Errorf("failed to store object: %w", err)
	}

	span.SetAttributes(
		attribute.String("blob.id", record.ID),
		attribute.Int64("blob.size_bytes", record.Size),
	)
	s.logger.Info().Str("blob_id", record.ID).Int64("size", record.Size).Msg("object stored")

	return record.object(), nil
}

// Open confirms the object exists and returns its descriptor along with a
// reader over its contents. Absence surfaces as ErrNotFound before any bytes
// are produced, so callers can still send a clean 404.
func (s *Service) Open(ctx context.Context, id string) (Object, io.ReadCloser, error) {
	ctx, span := s.tracer.Start(ctx, "blobstore.open")
	defer span.End()

	var record blobRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "not found")
			return Object{}, nil, ErrNotFound
		}
		span.RecordError(err)
		return Object{}, nil, fmt.Errorf("failed to open object: %w", err)
	}

	return record.object(), io.NopCloser(bytes.NewReader(record.Data)), nil
}

// Delete removes the object. Deleting an unknown id reports ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "blobstore.delete")
	defer span.End()

	result := s.db.WithContext(ctx).Delete(&blobRecord{}, "id = ?", id)
	if result.Error != nil {
		span.RecordError(result.Error)
		return fmt.Errorf("failed to delete object: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}

	s.logger.Info().Str("blob_id", id).Msg("object deleted")
	return nil
}

func (r blobRecord) object() Object {
	return Object{
		ID:          r.ID,
		Filename:    r.Filename,
		ContentType: r.ContentType,
		Size:        r.Size,
		CreatedAt:   r.CreatedAt,
	}
}
