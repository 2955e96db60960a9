package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kakshahq/kaksha-api/internal/config"
	"github.com/kakshahq/kaksha-api/internal/database"
	"github.com/kakshahq/kaksha-api/internal/handler"
	"github.com/kakshahq/kaksha-api/internal/middleware"
	"github.com/kakshahq/kaksha-api/internal/models"
	"github.com/kakshahq/kaksha-api/internal/repository"
	"github.com/kakshahq/kaksha-api/internal/router"
	"github.com/kakshahq/kaksha-api/internal/service"
	"github.com/kakshahq/kaksha-api/pkg/blobstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Classroom{}, &models.Assignment{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	app, err := buildApp(cfg, db, redisClient, logger)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildApp(cfg config.Config, db *gorm.DB, redisClient *redis.Client, logger zerolog.Logger) (*fiber.App, error) {
	// The store is connected before the server accepts traffic; handlers
	// never see a half-initialized blob backend.
	store, err := blobstore.New(db, logger)
	if err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	authService := service.NewAuthService(userRepo, validate, cfg.JWTSecret, cfg.TokenTTL, logger)
	userService := service.NewUserService(userRepo, validate, logger)
	classroomService := service.NewClassroomService(classroomRepo, assignmentRepo, userRepo, store, redisClient, cfg.ClassroomCacheTTL, validate, logger)
	doubtService := service.NewDoubtService(classroomRepo, userRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, classroomRepo, userRepo, store, validate, cfg.MaxUploadMB, cfg.MaxFilesPerUpload, logger)
	fileManagerService := service.NewFileManagerService(classroomRepo, userRepo, store, validate, cfg.MaxUploadMB, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.MaxUploadMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:        handler.NewAuthHandler(authService, cfg.TokenTTL, logger),
		UserHandler:        handler.NewUserHandler(userService, logger),
		ClassroomHandler:   handler.NewClassroomHandler(classroomService, logger),
		DoubtHandler:       handler.NewDoubtHandler(doubtService, logger),
		AssignmentHandler:  handler.NewAssignmentHandler(assignmentService, logger),
		FileManagerHandler: handler.NewFileManagerHandler(fileManagerService, logger),
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	return app, nil
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
