package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kakshahq/kaksha-api/internal/dto"
	"github.com/kakshahq/kaksha-api/internal/repository"
	"github.com/kakshahq/kaksha-api/internal/service"
)

func setupAuthService(t *testing.T) service.AuthService {
	t.Helper()

	db := newTestDB(t)
	return service.NewAuthService(
		repository.NewUserRepository(db),
		newTestValidator(),
		"test-secret",
		7*time.Hour,
		zerolog.New(io.Discard),
	)
}

func TestAuthSignupIssuesToken(t *testing.T) {
	svc := setupAuthService(t)

	auth, err := svc.Signup(context.Background(), dto.SignupRequest{
		Username: "ananya",
		Email:    "Ananya@Example.com",
		Password: "secret123",
		Role:     "teacher",
	})
	require.NoError(t, err)
	require.NotEmpty(t, auth.Token)
	require.Equal(t, "teacher", auth.User.Role)
	require.Equal(t, "ananya@example.com", auth.User.Email)

	token, err := jwt.Parse(auth.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "teacher", claims["role"])
}

func TestAuthSignupDuplicateEmail(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, dto.SignupRequest{
		Username: "first",
		Email:    "dup@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, dto.SignupRequest{
		Username: "second",
		Email:    "dup@example.com",
		Password: "secret123",
	})
	require.ErrorIs(t, err, service.ErrEmailTaken)
}

func TestAuthSigninUnknownEmail(t *testing.T) {
	svc := setupAuthService(t)

	_, err := svc.Signin(context.Background(), dto.SigninRequest{
		Email:    "ghost@example.com",
		Password: "whatever1",
	})
	require.ErrorIs(t, err, service.ErrUnknownEmail)
}

func TestAuthSigninWrongPassword(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, dto.SignupRequest{
		Username: "rahul",
		Email:    "rahul@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.Signin(ctx, dto.SigninRequest{
		Email:    "rahul@example.com",
		Password: "not-the-password",
	})
	require.ErrorIs(t, err, service.ErrBadCredentials)
}

func TestAuthSigninRoundTrip(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, dto.SignupRequest{
		Username: "priya",
		Email:    "priya@example.com",
		Password: "secret123",
		Role:     "student",
	})
	require.NoError(t, err)

	auth, err := svc.Signin(ctx, dto.SigninRequest{
		Email:    "priya@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, auth.Token)
	require.Equal(t, "priya", auth.User.Username)
}
