package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kakshahq/kaksha-api/internal/config"
	"github.com/kakshahq/kaksha-api/internal/handler"
	"github.com/kakshahq/kaksha-api/internal/middleware"
	"github.com/kakshahq/kaksha-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler        *handler.AuthHandler
	UserHandler        *handler.UserHandler
	ClassroomHandler   *handler.ClassroomHandler
	DoubtHandler       *handler.DoubtHandler
	AssignmentHandler  *handler.AssignmentHandler
	FileManagerHandler *handler.FileManagerHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := app.Group("/api/auth", middleware.RateLimit("auth", 20, time.Minute))
		deps.AuthHandler.Register(auth)
	}

	if deps.UserHandler != nil {
		user := app.Group("/api/user", jwtMiddleware)
		deps.UserHandler.Register(user)
	}

	if deps.ClassroomHandler != nil {
		kaksha := app.Group("/api/kaksha", jwtMiddleware)

		if deps.DoubtHandler != nil {
			deps.DoubtHandler.Register(kaksha.Group("/doubt"))
		}
		if deps.AssignmentHandler != nil {
			deps.AssignmentHandler.Register(kaksha.Group("/assignment"))
		}
		if deps.FileManagerHandler != nil {
			deps.FileManagerHandler.Register(kaksha.Group("/files"))
		}

		deps.ClassroomHandler.Register(kaksha)
	}
}
