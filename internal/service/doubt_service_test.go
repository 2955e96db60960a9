package service_test

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kakshahq/kaksha-api/internal/dto"
	"github.com/kakshahq/kaksha-api/internal/models"
	"github.com/kakshahq/kaksha-api/internal/repository"
	"github.com/kakshahq/kaksha-api/internal/service"
)

func setupDoubtService(t *testing.T) (service.DoubtService, *gorm.DB, models.Classroom) {
	t.Helper()

	db := newTestDB(t)
	classroom := models.Classroom{Name: "Algebra", CreatedBy: 1, InviteCode: "c0ffee00"}
	require.NoError(t, db.Create(&classroom).Error)

	svc := service.NewDoubtService(
		repository.NewClassroomRepository(db),
		repository.NewUserRepository(db),
		newTestValidator(),
		zerolog.New(io.Discard),
	)

	return svc, db, classroom
}

func TestDoubtCreateSanitizesQuestion(t *testing.T) {
	svc, db, classroom := setupDoubtService(t)
	asker := createUser(t, db, "asker1", models.RoleStudent)
	ctx := context.Background()

	doubt, err := svc.Create(ctx, asActor(asker), dto.DoubtCreateRequest{
		ClassroomID: classroom.ID,
		Question:    `What is <script>alert("x")</script> a matrix?`,
	})
	require.NoError(t, err)
	require.NotContains(t, doubt.Question, "<script>")
	require.Equal(t, 0, doubt.PlusOnes)
	require.NotEmpty(t, doubt.ID)
}

func TestDoubtCreateRejectsMarkupOnlyQuestion(t *testing.T) {
	svc, db, classroom := setupDoubtService(t)
	asker := createUser(t, db, "asker2", models.RoleStudent)

	_, err := svc.Create(context.Background(), asActor(asker), dto.DoubtCreateRequest{
		ClassroomID: classroom.ID,
		Question:    `<img src="x">`,
	})
	require.ErrorIs(t, err, service.ErrEmptyContent)
}

func TestDoubtPlusOneInvariants(t *testing.T) {
	svc, db, classroom := setupDoubtService(t)
	asker := createUser(t, db, "asker3", models.RoleStudent)
	voter := createUser(t, db, "voter3", models.RoleStudent)
	teacher := createUser(t, db, "staff3", models.RoleTeacher)
	ctx := context.Background()

	doubt, err := svc.Create(ctx, asActor(asker), dto.DoubtCreateRequest{
		ClassroomID: classroom.ID,
		Question:    "Why does the determinant vanish?",
	})
	require.NoError(t, err)

	vote := dto.DoubtVoteRequest{ClassroomID: classroom.ID, DoubtID: doubt.ID}

	require.ErrorIs(t, svc.PlusOne(ctx, asActor(asker), vote), service.ErrOwnDoubtVote)

	require.NoError(t, svc.PlusOne(ctx, asActor(voter), vote))
	require.ErrorIs(t, svc.PlusOne(ctx, asActor(voter), vote), service.ErrAlreadyVoted)

	listed, err := svc.List(ctx, classroom.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, 1, listed[0].PlusOnes)

	require.NoError(t, svc.Answer(ctx, asActor(teacher), dto.DoubtAnswerRequest{
		ClassroomID: classroom.ID,
		DoubtID:     doubt.ID,
		Answer:      "The rows are linearly dependent.",
	}))

	other := createUser(t, db, "voter3b", models.RoleStudent)
	require.ErrorIs(t, svc.PlusOne(ctx, asActor(other), vote), service.ErrDoubtAnswered)
}

func TestDoubtPlusOneUnknownDoubt(t *testing.T) {
	svc, db, classroom := setupDoubtService(t)
	voter := createUser(t, db, "voter4", models.RoleStudent)

	err := svc.PlusOne(context.Background(), asActor(voter), dto.DoubtVoteRequest{
		ClassroomID: classroom.ID,
		DoubtID:     "missing",
	})
	require.ErrorIs(t, err, service.ErrDoubtNotFound)
}

func TestDoubtAnswerRequiresStaff(t *testing.T) {
	svc, db, classroom := setupDoubtService(t)
	asker := createUser(t, db, "asker5", models.RoleStudent)
	student := createUser(t, db, "student5", models.RoleStudent)
	teacher := createUser(t, db, "staff5", models.RoleTeacher)
	ctx := context.Background()

	doubt, err := svc.Create(ctx, asActor(asker), dto.DoubtCreateRequest{
		ClassroomID: classroom.ID,
		Question:    "Is zero a natural number?",
	})
	require.NoError(t, err)

	answer := dto.DoubtAnswerRequest{
		ClassroomID: classroom.ID,
		DoubtID:     doubt.ID,
		Answer:      "Depends on the convention.",
	}

	require.ErrorIs(t, svc.Answer(ctx, asActor(student), answer), service.ErrAnswerForbidden)
	require.NoError(t, svc.Answer(ctx, asActor(teacher), answer))
	require.ErrorIs(t, svc.Answer(ctx, asActor(teacher), answer), service.ErrDoubtAnswered)

	listed, err := svc.List(ctx, classroom.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "Depends on the convention.", listed[0].Answer)
	require.NotNil(t, listed[0].AnsweredBy)
	require.Equal(t, teacher.ID, listed[0].AnsweredBy.ID)
}
