package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/kakshahq/kaksha-api/internal/dto"
	"github.com/kakshahq/kaksha-api/internal/service"
	"github.com/kakshahq/kaksha-api/internal/utils"
	"github.com/kakshahq/kaksha-api/pkg/blobstore"
)

// FileManagerHandler wires the folder-based file manager routes.
type FileManagerHandler struct {
	service service.FileManagerService
	logger  zerolog.Logger
}

// NewFileManagerHandler builds a file manager handler instance.
func NewFileManagerHandler(service service.FileManagerService, logger zerolog.Logger) *FileManagerHandler {
	return &FileManagerHandler{
		service: service,
		logger:  logger.With().Str("component", "filemanager_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *FileManagerHandler) Register(router fiber.Router) {
	router.Post("/create-folder", h.createFolder)
	router.Post("/folder/upload-file", h.uploadFile)
	router.Get("/folder/file/download-file", h.downloadFile)
	router.Delete("/folder/file/delete-file", h.deleteFile)
	router.Delete("/folder/delete-folder", h.deleteFolder)
	router.Get("/file-tree", h.tree)
}

func (h *FileManagerHandler) createFolder(c *fiber.Ctx) error {
	classroomID, err := parseUintQuery(c, "kakshaId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FolderCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.CreateFolder(c.Context(), actorFromContext(c), classroomID, payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "folder created", nil)
}

func (h *FileManagerHandler) uploadFile(c *fiber.Ctx) error {
	classroomID, err := parseUintQuery(c, "kakshaId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	folderID := c.Query("folderId")
	if folderID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "missing folderId")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	uploaded, err := h.service.UploadFile(c.Context(), actorFromContext(c), classroomID, folderID, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "file uploaded", uploaded)
}

func (h *FileManagerHandler) downloadFile(c *fiber.Ctx) error {
	classroomID, folderID, fileID, err := fileLocator(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, reader, err := h.service.OpenFile(c.Context(), classroomID, folderID, fileID)
	if err != nil {
		return h.handleError(c, err)
	}

	return streamFile(c, file, reader)
}

func (h *FileManagerHandler) deleteFile(c *fiber.Ctx) error {
	classroomID, folderID, fileID, err := fileLocator(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteFile(c.Context(), classroomID, folderID, fileID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "file deleted", nil)
}

func (h *FileManagerHandler) deleteFolder(c *fiber.Ctx) error {
	classroomID, err := parseUintQuery(c, "kakshaId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	folderID := c.Query("folderId")
	if folderID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "missing folderId")
	}

	if err := h.service.DeleteFolder(c.Context(), classroomID, folderID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "folder deleted", nil)
}

func (h *FileManagerHandler) tree(c *fiber.Ctx) error {
	classroomID, err := parseUintQuery(c, "kakshaId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	tree, err := h.service.Tree(c.Context(), classroomID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "file tree retrieved", tree)
}

func (h *FileManagerHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "kaksha not found")
	case errors.Is(err, service.ErrFolderNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "folder not found")
	case errors.Is(err, service.ErrFileNotFound), errors.Is(err, blobstore.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "file not found")
	case errors.Is(err, service.ErrNoFilesAttached):
		return utils.SendError(c, fiber.StatusBadRequest, "no files attached")
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusBadRequest, "file exceeds the upload size limit")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func fileLocator(c *fiber.Ctx) (classroomID uint, folderID, fileID string, err error) {
	classroomID, err = parseUintQuery(c, "kakshaId")
	if err != nil {
		return 0, "", "", err
	}
	folderID = c.Query("folderId")
	if folderID == "" {
		return 0, "", "", errors.New("missing folderId")
	}
	fileID = c.Query("fileId")
	if fileID == "" {
		return 0, "", "", errors.New("missing fileId")
	}
	return classroomID, folderID, fileID, nil
}
