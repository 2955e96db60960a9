package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/kakshahq/kaksha-api/internal/dto"
	"github.com/kakshahq/kaksha-api/internal/models"
	"github.com/kakshahq/kaksha-api/internal/service"
	"github.com/kakshahq/kaksha-api/internal/utils"
	"github.com/kakshahq/kaksha-api/pkg/blobstore"
)

// AssignmentHandler wires assignment HTTP routes, including the multipart
// create/submit endpoints and attachment streaming.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler builds an assignment handler instance.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Post("/create", h.create)
	router.Get("/details", h.details)
	router.Post("/submit", h.submit)
	router.Get("/list-submissions", h.listSubmissions)
	router.Get("/attachment/:fileId", h.downloadAttachment)
	router.Get("/submissions/download", h.downloadSubmissionFile)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	classroomID, err := parseUintForm(c, "kaksha_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.AssignmentCreateRequest{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		ClassroomID: classroomID,
		DueDate:     c.FormValue("due_date"),
	}

	files, err := multipartFiles(c, "files")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.Create(c.Context(), actorFromContext(c), payload, files)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) details(c *fiber.Ctx) error {
	assignmentID, err := parseUintQuery(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.Get(c.Context(), assignmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *AssignmentHandler) submit(c *fiber.Ctx) error {
	assignmentID, err := parseUintQuery(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	files, err := multipartFiles(c, "submissionFiles")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Submit(c.Context(), actorFromContext(c), assignmentID, files); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission recorded", nil)
}

func (h *AssignmentHandler) listSubmissions(c *fiber.Ctx) error {
	assignmentID, err := parseUintQuery(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.ListSubmissions(c.Context(), assignmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *AssignmentHandler) downloadAttachment(c *fiber.Ctx) error {
	assignmentID, err := parseUintQuery(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	fileID := c.Params("fileId")

	file, reader, err := h.service.OpenAttachment(c.Context(), assignmentID, fileID)
	if err != nil {
		return h.handleError(c, err)
	}

	return streamFile(c, file, reader)
}

func (h *AssignmentHandler) downloadSubmissionFile(c *fiber.Ctx) error {
	assignmentID, err := parseUintQuery(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintQuery(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	fileID := c.Query("fileId")
	if fileID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "missing fileId")
	}

	file, reader, err := h.service.OpenSubmissionFile(c.Context(), assignmentID, studentID, fileID)
	if err != nil {
		return h.handleError(c, err)
	}

	return streamFile(c, file, reader)
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "kaksha not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrFileNotFound), errors.Is(err, blobstore.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "file not found")
	case errors.Is(err, service.ErrAssignmentForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "only teachers and admins can create assignments")
	case errors.Is(err, service.ErrNotClassroomCreator):
		return utils.SendError(c, fiber.StatusForbidden, "only the kaksha creator may do this")
	case errors.Is(err, service.ErrOnlyStudents):
		return utils.SendError(c, fiber.StatusForbidden, "only students can submit")
	case errors.Is(err, service.ErrAlreadySubmitted):
		return utils.SendError(c, fiber.StatusConflict, "assignment already submitted")
	case errors.Is(err, service.ErrNoFilesAttached):
		return utils.SendError(c, fiber.StatusBadRequest, "no files attached")
	case errors.Is(err, service.ErrTooManyFiles):
		return utils.SendError(c, fiber.StatusBadRequest, "too many files attached")
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusBadRequest, "file exceeds the upload size limit")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

// multipartFiles extracts the named file field from the multipart form. A
// missing form is a bad request; an empty field is left for the service to
// reject so the limit errors stay in one place.
func multipartFiles(c *fiber.Ctx, field string) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.New("multipart form is required")
	}
	return form.File[field], nil
}

// streamFile writes the blob to the response. The service resolved the record
// and opened the blob before this point, so headers are only set once the
// bytes are known to exist. fasthttp closes the stream after sending the body.
func streamFile(c *fiber.Ctx, file models.FileMeta, reader io.ReadCloser) error {
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Filename))
	if file.Size > 0 {
		c.Set(fiber.HeaderContentLength, strconv.FormatInt(file.Size, 10))
	}

	return c.SendStream(reader)
}
