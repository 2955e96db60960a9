package handler_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kakshahq/kaksha-api/internal/config"
	"github.com/kakshahq/kaksha-api/internal/handler"
	"github.com/kakshahq/kaksha-api/internal/models"
	"github.com/kakshahq/kaksha-api/internal/repository"
	"github.com/kakshahq/kaksha-api/internal/router"
	"github.com/kakshahq/kaksha-api/internal/service"
	"github.com/kakshahq/kaksha-api/internal/utils"
	"github.com/kakshahq/kaksha-api/pkg/blobstore"

	"github.com/go-playground/validator/v10"
)

var handlerDBCounter atomic.Int64

// testJWT reads the acting user from request headers so multi-user flows can
// be exercised without minting real tokens.
func testJWT(c *fiber.Ctx) error {
	if raw := c.Get("X-Test-User"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			c.Locals("user_id", uint(id))
		}
	}
	if role := c.Get("X-Test-Role"); role != "" {
		c.Locals("user_role", role)
	}
	return c.Next()
}

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:handler%d?mode=memory&cache=shared", handlerDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Classroom{}, &models.Assignment{}))

	logger := zerolog.New(io.Discard)
	store, err := blobstore.New(db, logger)
	require.NoError(t, err)

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	authService := service.NewAuthService(userRepo, validate, "test-secret", 7*time.Hour, logger)
	userService := service.NewUserService(userRepo, validate, logger)
	classroomService := service.NewClassroomService(classroomRepo, assignmentRepo, userRepo, store, nil, time.Minute, validate, logger)
	doubtService := service.NewDoubtService(classroomRepo, userRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, classroomRepo, userRepo, store, validate, 10, 3, logger)
	fileManagerService := service.NewFileManagerService(classroomRepo, userRepo, store, validate, 10, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Kaksha Test", JWTSecret: "test-secret"}, router.Dependencies{
		AuthHandler:        handler.NewAuthHandler(authService, 7*time.Hour, logger),
		UserHandler:        handler.NewUserHandler(userService, logger),
		ClassroomHandler:   handler.NewClassroomHandler(classroomService, logger),
		DoubtHandler:       handler.NewDoubtHandler(doubtService, logger),
		AssignmentHandler:  handler.NewAssignmentHandler(assignmentService, logger),
		FileManagerHandler: handler.NewFileManagerHandler(fileManagerService, logger),
		JWTMiddleware:      testJWT,
	})

	return app, db
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()

	user := models.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, db.Create(&user).Error)
	return user
}

func asUser(req *http.Request, user models.User) *http.Request {
	req.Header.Set("X-Test-User", strconv.FormatUint(uint64(user.ID), 10))
	req.Header.Set("X-Test-Role", user.Role)
	return req
}

func decodeResponse(t *testing.T, resp *http.Response) utils.APIResponse {
	t.Helper()

	defer resp.Body.Close()
	var payload utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func dataField(t *testing.T, payload utils.APIResponse, key string) interface{} {
	t.Helper()

	data, ok := payload.Data.(map[string]interface{})
	require.True(t, ok, "expected object data, got %T", payload.Data)
	return data[key]
}
