package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/kakshahq/kaksha-api/internal/dto"
	"github.com/kakshahq/kaksha-api/internal/service"
	"github.com/kakshahq/kaksha-api/internal/utils"
)

// ClassroomHandler manages classroom lifecycle and the posts feed.
type ClassroomHandler struct {
	service service.ClassroomService
	logger  zerolog.Logger
}

// NewClassroomHandler builds a classroom handler instance.
func NewClassroomHandler(service service.ClassroomService, logger zerolog.Logger) *ClassroomHandler {
	return &ClassroomHandler{
		service: service,
		logger:  logger.With().Str("component", "classroom_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ClassroomHandler) Register(router fiber.Router) {
	router.Post("/create", h.create)
	router.Post("/join", h.join)
	router.Get("/mine", h.mine)
	router.Get("/posts", h.posts)
	router.Delete("/", h.remove)
}

func (h *ClassroomHandler) create(c *fiber.Ctx) error {
	var payload dto.ClassroomCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	classroom, err := h.service.Create(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "kaksha created", classroom)
}

func (h *ClassroomHandler) join(c *fiber.Ctx) error {
	var payload dto.ClassroomJoinRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	classroom, err := h.service.Join(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "kaksha joined", classroom)
}

func (h *ClassroomHandler) mine(c *fiber.Ctx) error {
	classrooms, err := h.service.ListMine(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "kakshas retrieved", classrooms)
}

func (h *ClassroomHandler) posts(c *fiber.Ctx) error {
	classroomID, err := parseUintQuery(c, "kakshaId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	posts, err := h.service.ListPosts(c.Context(), classroomID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "posts retrieved", posts)
}

func (h *ClassroomHandler) remove(c *fiber.Ctx) error {
	classroomID, err := parseUintQuery(c, "kakshaId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), actorFromContext(c), classroomID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "kaksha deleted", nil)
}

func (h *ClassroomHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "kaksha not found")
	case errors.Is(err, service.ErrInviteCodeNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "invite code not found")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrClassroomNameTaken):
		return utils.SendError(c, fiber.StatusConflict, "kaksha name already taken")
	case errors.Is(err, service.ErrAlreadyMember):
		return utils.SendError(c, fiber.StatusConflict, "already a member of this kaksha")
	case errors.Is(err, service.ErrOnlyTeachers):
		return utils.SendError(c, fiber.StatusForbidden, "only teachers can create a kaksha")
	case errors.Is(err, service.ErrNotClassroomCreator):
		return utils.SendError(c, fiber.StatusForbidden, "only the kaksha creator may do this")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
