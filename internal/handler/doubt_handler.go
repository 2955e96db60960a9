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

// DoubtHandler manages doubt endpoints inside a classroom.
type DoubtHandler struct {
	service service.DoubtService
	logger  zerolog.Logger
}

// NewDoubtHandler builds a doubt handler instance.
func NewDoubtHandler(service service.DoubtService, logger zerolog.Logger) *DoubtHandler {
	return &DoubtHandler{
		service: service,
		logger:  logger.With().Str("component", "doubt_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *DoubtHandler) Register(router fiber.Router) {
	router.Post("/create-doubt", h.create)
	router.Put("/plus-one-doubt", h.plusOne)
	router.Put("/answer-doubt", h.answer)
	router.Get("/list-doubts", h.list)
}

func (h *DoubtHandler) create(c *fiber.Ctx) error {
	var payload dto.DoubtCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	doubt, err := h.service.Create(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "doubt created", doubt)
}

func (h *DoubtHandler) plusOne(c *fiber.Ctx) error {
	var payload dto.DoubtVoteRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.PlusOne(c.Context(), actorFromContext(c), payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "doubt plus-oned", nil)
}

func (h *DoubtHandler) answer(c *fiber.Ctx) error {
	var payload dto.DoubtAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.Answer(c.Context(), actorFromContext(c), payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "doubt answered", nil)
}

func (h *DoubtHandler) list(c *fiber.Ctx) error {
	classroomID, err := parseUintQuery(c, "kakshaId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	doubts, err := h.service.List(c.Context(), classroomID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "doubts retrieved", doubts)
}

func (h *DoubtHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "kaksha not found")
	case errors.Is(err, service.ErrDoubtNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "doubt not found")
	case errors.Is(err, service.ErrDoubtAnswered):
		return utils.SendError(c, fiber.StatusConflict, "doubt already answered")
	case errors.Is(err, service.ErrAlreadyVoted):
		return utils.SendError(c, fiber.StatusConflict, "already plus-oned this doubt")
	case errors.Is(err, service.ErrOwnDoubtVote):
		return utils.SendError(c, fiber.StatusForbidden, "cannot plus-one your own doubt")
	case errors.Is(err, service.ErrAnswerForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "only teachers and admins can answer doubts")
	case errors.Is(err, service.ErrEmptyContent):
		return utils.SendError(c, fiber.StatusBadRequest, "content is empty after sanitization")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
