package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kakshahq/kaksha-api/internal/dto"
	"github.com/kakshahq/kaksha-api/internal/models"
	"github.com/kakshahq/kaksha-api/internal/observability"
	"github.com/kakshahq/kaksha-api/internal/repository"
	"github.com/kakshahq/kaksha-api/pkg/blobstore"
)

// ErrFolderNotFound indicates the folder id is absent from the classroom.
var ErrFolderNotFound = errors.New("folder not found")

// FileManagerService exposes the folder-based file manager embedded in the
// classroom aggregate.
type FileManagerService interface {
	CreateFolder(ctx context.Context, actor Actor, classroomID uint, payload dto.FolderCreateRequest) error
	UploadFile(ctx context.Context, actor Actor, classroomID uint, folderID string, file *multipart.FileHeader) (dto.FileResponse, error)
	OpenFile(ctx context.Context, classroomID uint, folderID, fileID string) (models.FileMeta, io.ReadCloser, error)
	DeleteFile(ctx context.Context, classroomID uint, folderID, fileID string) error
	DeleteFolder(ctx context.Context, classroomID uint, folderID string) error
	Tree(ctx context.Context, classroomID uint) ([]dto.FileTreeNode, error)
}

type fileManagerService struct {
	classrooms repository.ClassroomRepository
	users      repository.UserRepository
	store      blobstore.Store
	validator  *validator.Validate
	limits     uploadLimits
	logger     zerolog.Logger
	now        func() time.Time
}

// NewFileManagerService builds the file manager service.
func NewFileManagerService(
	classrooms repository.ClassroomRepository,
	users repository.UserRepository,
	store blobstore.Store,
	validate *validator.Validate,
	maxUploadMB int,
	logger zerolog.Logger,
) FileManagerService {
	return &fileManagerService{
		classrooms: classrooms,
		users:      users,
		store:      store,
		validator:  validate,
		limits:     limitsFrom(maxUploadMB, 1),
		logger:     logger.With().Str("component", "filemanager_service").Logger(),
		now:        time.Now,
	}
}

func (s *fileManagerService) CreateFolder(ctx context.Context, actor Actor, classroomID uint, payload dto.FolderCreateRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	classroom, err := s.loadClassroom(ctx, classroomID)
	if err != nil {
		return err
	}

	classroom.Folders = append(classroom.Folders, models.Folder{
		ID:        uuid.NewString(),
		Name:      payload.Name,
		CreatedBy: actor.ID,
		Files:     []models.FileMeta{},
		CreatedAt: s.now().UTC(),
		UpdatedAt: s.now().UTC(),
	})

	if err := s.classrooms.Save(ctx, &classroom); err != nil {
		return err
	}

	s.logger.Info().Uint("classroom_id", classroomID).Str("folder", payload.Name).Msg("folder created")
	return nil
}

func (s *fileManagerService) UploadFile(ctx context.Context, actor Actor, classroomID uint, folderID string, file *multipart.FileHeader) (dto.FileResponse, error) {
	if file == nil {
		return dto.FileResponse{}, ErrNoFilesAttached
	}

	classroom, err := s.loadClassroom(ctx, classroomID)
	if err != nil {
		return dto.FileResponse{}, err
	}

	folder := classroom.FindFolder(folderID)
	if folder == nil {
		return dto.FileResponse{}, ErrFolderNotFound
	}

	records, err := storeMultipartFiles(ctx, s.store, []*multipart.FileHeader{file}, actor.ID, "folder", s.limits)
	if err != nil {
		return dto.FileResponse{}, err
	}

	folder.Files = append(folder.Files, records[0])
	folder.UpdatedAt = s.now().UTC()

	if err := s.classrooms.Save(ctx, &classroom); err != nil {
		return dto.FileResponse{}, err
	}

	s.logger.Info().
		Uint("classroom_id", classroomID).
		Str("folder_id", folderID).
		Str("file_id", records[0].ID).
		Msg("file uploaded to folder")

	return dto.NewFileResponse(records[0]), nil
}

func (s *fileManagerService) OpenFile(ctx context.Context, classroomID uint, folderID, fileID string) (models.FileMeta, io.ReadCloser, error) {
	classroom, err := s.loadClassroom(ctx, classroomID)
	if err != nil {
		return models.FileMeta{}, nil, err
	}

	folder := classroom.FindFolder(folderID)
	if folder == nil {
		return models.FileMeta{}, nil, ErrFolderNotFound
	}

	file, ok := folder.FindFile(fileID)
	if !ok {
		return models.FileMeta{}, nil, ErrFileNotFound
	}

	_, reader, err := s.store.Open(ctx, file.BlobID)
	if err != nil {
		return models.FileMeta{}, nil, err
	}

	return file, reader, nil
}

// DeleteFile removes the blob first; only once the store confirms the delete
// is the record dropped from the aggregate and the classroom saved.
func (s *fileManagerService) DeleteFile(ctx context.Context, classroomID uint, folderID, fileID string) error {
	classroom, err := s.loadClassroom(ctx, classroomID)
	if err != nil {
		return err
	}

	folder := classroom.FindFolder(folderID)
	if folder == nil {
		return ErrFolderNotFound
	}

	file, ok := folder.FindFile(fileID)
	if !ok {
		return ErrFileNotFound
	}

	if err := s.deleteBlob(ctx, file.BlobID); err != nil {
		return err
	}

	kept := make([]models.FileMeta, 0, len(folder.Files)-1)
	for _, existing := range folder.Files {
		if existing.ID != fileID {
			kept = append(kept, existing)
		}
	}
	folder.Files = kept
	folder.UpdatedAt = s.now().UTC()

	if err := s.classrooms.Save(ctx, &classroom); err != nil {
		return err
	}

	s.logger.Info().Uint("classroom_id", classroomID).Str("file_id", fileID).Msg("file deleted")
	return nil
}

func (s *fileManagerService) DeleteFolder(ctx context.Context, classroomID uint, folderID string) error {
	classroom, err := s.loadClassroom(ctx, classroomID)
	if err != nil {
		return err
	}

	folder := classroom.FindFolder(folderID)
	if folder == nil {
		return ErrFolderNotFound
	}

	for _, file := range folder.Files {
		if err := s.deleteBlob(ctx, file.BlobID); err != nil {
			return err
		}
	}

	kept := make([]models.Folder, 0, len(classroom.Folders)-1)
	for _, existing := range classroom.Folders {
		if existing.ID != folderID {
			kept = append(kept, existing)
		}
	}
	classroom.Folders = kept

	if err := s.classrooms.Save(ctx, &classroom); err != nil {
		return err
	}

	s.logger.Info().Uint("classroom_id", classroomID).Str("folder_id", folderID).Msg("folder deleted")
	return nil
}

func (s *fileManagerService) Tree(ctx context.Context, classroomID uint) ([]dto.FileTreeNode, error) {
	classroom, err := s.loadClassroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(classroom.Folders))
	for _, folder := range classroom.Folders {
		ids = append(ids, folder.CreatedBy)
		for _, file := range folder.Files {
			ids = append(ids, file.UploadedBy)
		}
	}

	users, err := loadUserMap(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}

	return dto.NewFileTree(classroom.Folders, users), nil
}

func (s *fileManagerService) deleteBlob(ctx context.Context, blobID string) error {
	err := s.store.Delete(ctx, blobID)
	if err == nil {
		observability.ObjectsDeleted().Inc()
		return nil
	}
	if errors.Is(err, blobstore.ErrNotFound) {
		s.logger.Warn().Str("blob_id", blobID).Msg("blob already absent")
		return nil
	}
	return fmt.Errorf("failed to delete blob %s: %w", blobID, err)
}

func (s *fileManagerService) loadClassroom(ctx context.Context, id uint) (models.Classroom, error) {
	classroom, err := s.classrooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Classroom{}, ErrClassroomNotFound
		}
		return models.Classroom{}, err
	}
	return classroom, nil
}
