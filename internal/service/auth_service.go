package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kakshahq/kaksha-api/internal/dto"
	"github.com/kakshahq/kaksha-api/internal/models"
	"github.com/kakshahq/kaksha-api/internal/repository"
)

var (
	// ErrEmailTaken indicates the email already belongs to an account.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrUsernameTaken indicates the username already belongs to an account.
	ErrUsernameTaken = errors.New("username is already taken")
	// ErrUnknownEmail indicates no account exists for the email.
	ErrUnknownEmail = errors.New("user does not exist")
	// ErrBadCredentials indicates the password check failed.
	ErrBadCredentials = errors.New("email and password do not match")
)

// AuthService exposes account creation and sign-in.
type AuthService interface {
	Signup(ctx context.Context, payload dto.SignupRequest) (dto.AuthResponse, error)
	Signin(ctx context.Context, payload dto.SigninRequest) (dto.AuthResponse, error)
}

type authService struct {
	users     repository.UserRepository
	validator *validator.Validate
	secret    string
	tokenTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService builds the authentication service.
func NewAuthService(users repository.UserRepository, validate *validator.Validate, secret string, tokenTTL time.Duration, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		validator: validate,
		secret:    secret,
		tokenTTL:  tokenTTL,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Signup(ctx context.Context, payload dto.SignupRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return dto.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthResponse{}, err
	}

	taken, err := s.users.ExistsByUsername(ctx, payload.Username)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	if taken {
		return dto.AuthResponse{}, ErrUsernameTaken
	}

	role := payload.Role
	if role == "" {
		role = models.RoleStudent
	}

	user := models.User{
		Username: strings.TrimSpace(payload.Username),
		Email:    email,
		Role:     role,
	}
	if err := user.SetPassword(payload.Password); err != nil {
		return dto.AuthResponse{}, fmt.Errorf("failed to derive password hash: %w", err)
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return dto.AuthResponse{}, err
	}

	token, err := s.mintToken(user)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user enrolled")

	return dto.AuthResponse{Token: token, User: dto.NewUserResponse(user)}, nil
}

func (s *authService) Signin(ctx context.Context, payload dto.SigninRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrUnknownEmail
		}
		return dto.AuthResponse{}, err
	}

	if !user.Authenticate(payload.Password) {
		return dto.AuthResponse{}, ErrBadCredentials
	}

	token, err := s.mintToken(user)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user signed in")

	return dto.AuthResponse{Token: token, User: dto.NewUserResponse(user)}, nil
}

func (s *authService) mintToken(user models.User) (string, error) {
	issuedAt := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", user.ID),
		"role": user.Role,
		"iat":  issuedAt.Unix(),
		"exp":  issuedAt.Add(s.tokenTTL).Unix(),
	})

	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
