package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/kakshahq/kaksha-api/internal/dto"
	"github.com/kakshahq/kaksha-api/internal/middleware"
	"github.com/kakshahq/kaksha-api/internal/service"
	"github.com/kakshahq/kaksha-api/internal/utils"
)

// AuthHandler manages signup, signin and logout. Issued tokens are echoed in
// the response body and mirrored into an http-only cookie.
type AuthHandler struct {
	service  service.AuthService
	tokenTTL time.Duration
	logger   zerolog.Logger
}

// NewAuthHandler builds an auth handler instance.
func NewAuthHandler(service service.AuthService, tokenTTL time.Duration, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		tokenTTL: tokenTTL,
		logger:   logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/signup", h.signup)
	router.Post("/signin", h.signin)
	router.Get("/logout", h.logout)
}

func (h *AuthHandler) signup(c *fiber.Ctx) error {
	var payload dto.SignupRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	auth, err := h.service.Signup(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	h.setTokenCookie(c, auth.Token)
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created", auth)
}

func (h *AuthHandler) signin(c *fiber.Ctx) error {
	var payload dto.SigninRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	auth, err := h.service.Signin(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	h.setTokenCookie(c, auth.Token)
	return utils.SendSuccess(c, "signed in", auth)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})

	return utils.SendSuccess(c, "signed out", nil)
}

func (h *AuthHandler) setTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Expires:  time.Now().Add(h.tokenTTL),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		return utils.SendError(c, fiber.StatusConflict, "email already registered")
	case errors.Is(err, service.ErrUsernameTaken):
		return utils.SendError(c, fiber.StatusConflict, "username already taken")
	case errors.Is(err, service.ErrUnknownEmail):
		return utils.SendError(c, fiber.StatusNotFound, "user does not exist")
	case errors.Is(err, service.ErrBadCredentials):
		return utils.SendError(c, fiber.StatusBadRequest, "email and password do not match")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
