package service_test

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kakshahq/kaksha-api/internal/dto"
	"github.com/kakshahq/kaksha-api/internal/models"
	"github.com/kakshahq/kaksha-api/internal/repository"
	"github.com/kakshahq/kaksha-api/internal/service"
)

func TestUserUpdateAppliesOnlyProvidedFields(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewUserService(repository.NewUserRepository(db), newTestValidator(), zerolog.New(io.Discard))
	user := createUser(t, db, "profile1", models.RoleStudent)

	firstName := "Asha"
	bio := "Final year student"
	updated, err := svc.Update(context.Background(), user.ID, dto.UserUpdateRequest{
		FirstName: &firstName,
		Bio:       &bio,
	})
	require.NoError(t, err)
	require.Equal(t, "Asha", updated.FirstName)
	require.Equal(t, "Final year student", updated.Bio)
	require.Equal(t, "profile1", updated.Username)
	require.Empty(t, updated.LastName)
}

func TestUserGetUnknownID(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewUserService(repository.NewUserRepository(db), newTestValidator(), zerolog.New(io.Discard))

	_, err := svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestUserDelete(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewUserService(repository.NewUserRepository(db), newTestValidator(), zerolog.New(io.Discard))
	user := createUser(t, db, "leaver1", models.RoleStudent)

	require.NoError(t, svc.Delete(context.Background(), user.ID))
	_, err := svc.Get(context.Background(), user.ID)
	require.ErrorIs(t, err, service.ErrUserNotFound)
	require.ErrorIs(t, svc.Delete(context.Background(), user.ID), service.ErrUserNotFound)
}
