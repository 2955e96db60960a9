package service_test

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kakshahq/kaksha-api/internal/dto"
	"github.com/kakshahq/kaksha-api/internal/models"
	"github.com/kakshahq/kaksha-api/internal/repository"
	"github.com/kakshahq/kaksha-api/internal/service"
)

func setupFileManager(t *testing.T) (service.FileManagerService, *gorm.DB, models.Classroom) {
	t.Helper()

	db := newTestDB(t)
	store := newTestStore(t, db)

	classroom := models.Classroom{Name: "Workshop", CreatedBy: 1, InviteCode: "abcd1234"}
	require.NoError(t, db.Create(&classroom).Error)

	svc := service.NewFileManagerService(
		repository.NewClassroomRepository(db),
		repository.NewUserRepository(db),
		store,
		newTestValidator(),
		10,
		zerolog.New(io.Discard),
	)

	return svc, db, classroom
}

func folderID(t *testing.T, db *gorm.DB, classroomID uint) string {
	t.Helper()

	var classroom models.Classroom
	require.NoError(t, db.First(&classroom, classroomID).Error)
	require.NotEmpty(t, classroom.Folders)
	return classroom.Folders[0].ID
}

func TestFileManagerUploadAndDownload(t *testing.T) {
	svc, db, classroom := setupFileManager(t)
	owner := createUser(t, db, "fmowner1", models.RoleTeacher)
	ctx := context.Background()

	require.NoError(t, svc.CreateFolder(ctx, asActor(owner), classroom.ID, dto.FolderCreateRequest{Name: "Handouts"}))
	folder := folderID(t, db, classroom.ID)

	uploaded, err := svc.UploadFile(ctx, asActor(owner), classroom.ID, folder, makeFileHeader(t, "file", "week1.pdf", "handout body"))
	require.NoError(t, err)
	require.Equal(t, "week1.pdf", uploaded.Filename)

	file, reader, err := svc.OpenFile(ctx, classroom.ID, folder, uploaded.ID)
	require.NoError(t, err)
	defer reader.Close()

	require.Equal(t, "week1.pdf", file.Filename)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, "handout body", string(data))
}

func TestFileManagerUploadUnknownFolder(t *testing.T) {
	svc, db, classroom := setupFileManager(t)
	owner := createUser(t, db, "fmowner2", models.RoleTeacher)

	_, err := svc.UploadFile(context.Background(), asActor(owner), classroom.ID, "missing", makeFileHeader(t, "file", "x.txt", "x"))
	require.ErrorIs(t, err, service.ErrFolderNotFound)
}

func TestFileManagerDeleteFilePurgesBlob(t *testing.T) {
	svc, db, classroom := setupFileManager(t)
	owner := createUser(t, db, "fmowner3", models.RoleTeacher)
	ctx := context.Background()

	require.NoError(t, svc.CreateFolder(ctx, asActor(owner), classroom.ID, dto.FolderCreateRequest{Name: "Scratch"}))
	folder := folderID(t, db, classroom.ID)

	uploaded, err := svc.UploadFile(ctx, asActor(owner), classroom.ID, folder, makeFileHeader(t, "file", "draft.txt", "draft"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFile(ctx, classroom.ID, folder, uploaded.ID))

	_, _, err = svc.OpenFile(ctx, classroom.ID, folder, uploaded.ID)
	require.ErrorIs(t, err, service.ErrFileNotFound)

	var reloaded models.Classroom
	require.NoError(t, db.First(&reloaded, classroom.ID).Error)
	require.Empty(t, reloaded.Folders[0].Files)

	// The blob itself must be gone, not just the record.
	var count int64
	require.NoError(t, db.Table("blobs").Count(&count).Error)
	require.Zero(t, count)
}

func TestFileManagerDeleteFolderPurgesAllBlobs(t *testing.T) {
	svc, db, classroom := setupFileManager(t)
	owner := createUser(t, db, "fmowner4", models.RoleTeacher)
	ctx := context.Background()

	require.NoError(t, svc.CreateFolder(ctx, asActor(owner), classroom.ID, dto.FolderCreateRequest{Name: "Archive"}))
	folder := folderID(t, db, classroom.ID)

	first, err := svc.UploadFile(ctx, asActor(owner), classroom.ID, folder, makeFileHeader(t, "file", "one.txt", "one"))
	require.NoError(t, err)
	second, err := svc.UploadFile(ctx, asActor(owner), classroom.ID, folder, makeFileHeader(t, "file", "two.txt", "two"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFolder(ctx, classroom.ID, folder))

	var reloaded models.Classroom
	require.NoError(t, db.First(&reloaded, classroom.ID).Error)
	require.Empty(t, reloaded.Folders)

	for _, uploaded := range []dto.FileResponse{first, second} {
		_, _, err := svc.OpenFile(ctx, classroom.ID, folder, uploaded.ID)
		require.ErrorIs(t, err, service.ErrFolderNotFound)
	}

	var count int64
	require.NoError(t, db.Table("blobs").Count(&count).Error)
	require.Zero(t, count)
}

func TestFileManagerTree(t *testing.T) {
	svc, db, classroom := setupFileManager(t)
	owner := createUser(t, db, "fmowner5", models.RoleTeacher)
	ctx := context.Background()

	require.NoError(t, svc.CreateFolder(ctx, asActor(owner), classroom.ID, dto.FolderCreateRequest{Name: "Lectures"}))
	folder := folderID(t, db, classroom.ID)

	_, err := svc.UploadFile(ctx, asActor(owner), classroom.ID, folder, makeFileHeader(t, "file", "intro.mp4", "video-bytes"))
	require.NoError(t, err)

	tree, err := svc.Tree(ctx, classroom.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Equal(t, "folder", tree[0].Type)
	require.Equal(t, "Lectures", tree[0].Name)
	require.NotNil(t, tree[0].CreatedBy)
	require.Equal(t, owner.Username, tree[0].CreatedBy.Username)
	require.Len(t, tree[0].Children, 1)
	require.Equal(t, "file", tree[0].Children[0].Type)
	require.Equal(t, "intro.mp4", tree[0].Children[0].Name)
	require.NotEmpty(t, tree[0].Children[0].Size)
}
