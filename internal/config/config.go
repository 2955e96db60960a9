package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	JWTSecret         string
	TokenTTL          time.Duration
	ClassroomCacheTTL time.Duration
	MaxUploadMB       int
	MaxFilesPerUpload int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("KAKSHA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Kaksha API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("token.ttl", "7h")
	v.SetDefault("classroom.cache_ttl", "5m")
	v.SetDefault("upload.max_mb", 10)
	v.SetDefault("upload.max_files", 3)

	tokenTTL, err := time.ParseDuration(v.GetString("token.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid token ttl: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("classroom.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid classroom cache ttl: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		TokenTTL:          tokenTTL,
		ClassroomCacheTTL: cacheTTL,
		MaxUploadMB:       v.GetInt("upload.max_mb"),
		MaxFilesPerUpload: v.GetInt("upload.max_files"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 10
	}

	if cfg.MaxFilesPerUpload <= 0 {
		cfg.MaxFilesPerUpload = 3
	}

	return cfg, nil
}
