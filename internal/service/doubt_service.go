package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kakshahq/kaksha-api/internal/dto"
	"github.com/kakshahq/kaksha-api/internal/models"
	"github.com/kakshahq/kaksha-api/internal/repository"
)

var (
	// ErrDoubtNotFound indicates the doubt id does not exist in the classroom.
	ErrDoubtNotFound = errors.New("doubt not found")
	// ErrDoubtAnswered indicates a mutation arrived after the single answer.
	ErrDoubtAnswered = errors.New("doubt is already answered")
	// ErrOwnDoubtVote indicates the asker tried to upvote their own doubt.
	ErrOwnDoubtVote = errors.New("cannot upvote your own doubt")
	// ErrAlreadyVoted indicates the user already upvoted the doubt.
	ErrAlreadyVoted = errors.New("doubt already upvoted by this user")
	// ErrAnswerForbidden indicates a non-staff caller tried to answer.
	ErrAnswerForbidden = errors.New("only teachers or admins can answer doubts")
	// ErrEmptyContent indicates the text was empty after sanitization.
	ErrEmptyContent = errors.New("content empty after sanitization")
)

// DoubtService exposes question-and-answer use cases on the classroom
// aggregate. Every mutation loads, changes and saves the whole classroom.
type DoubtService interface {
	Create(ctx context.Context, actor Actor, payload dto.DoubtCreateRequest) (dto.DoubtResponse, error)
	PlusOne(ctx context.Context, actor Actor, payload dto.DoubtVoteRequest) error
	Answer(ctx context.Context, actor Actor, payload dto.DoubtAnswerRequest) error
	List(ctx context.Context, classroomID uint) ([]dto.DoubtResponse, error)
}

type doubtService struct {
	classrooms repository.ClassroomRepository
	users      repository.UserRepository
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	now        func() time.Time
}

// NewDoubtService builds the doubt service.
func NewDoubtService(classrooms repository.ClassroomRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) DoubtService {
	return &doubtService{
		classrooms: classrooms,
		users:      users,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "doubt_service").Logger(),
		now:        time.Now,
	}
}

func (s *doubtService) Create(ctx context.Context, actor Actor, payload dto.DoubtCreateRequest) (dto.DoubtResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DoubtResponse{}, err
	}

	question := strings.TrimSpace(s.sanitizer.Sanitize(payload.Question))
	if question == "" {
		return dto.DoubtResponse{}, ErrEmptyContent
	}

	classroom, err := s.loadClassroom(ctx, payload.ClassroomID)
	if err != nil {
		return dto.DoubtResponse{}, err
	}

	doubt := models.Doubt{
		ID:        uuid.NewString(),
		Question:  question,
		AskedBy:   actor.ID,
		PlusOnes:  0,
		CreatedAt: s.now().UTC(),
		UpdatedAt: s.now().UTC(),
	}
	classroom.Doubts = append(classroom.Doubts, doubt)

	if err := s.classrooms.Save(ctx, &classroom); err != nil {
		return dto.DoubtResponse{}, err
	}

	s.logger.Info().Uint("classroom_id", classroom.ID).Str("doubt_id", doubt.ID).Msg("doubt created")

	return dto.NewDoubtResponse(doubt, nil), nil
}

func (s *doubtService) PlusOne(ctx context.Context, actor Actor, payload dto.DoubtVoteRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	classroom, err := s.loadClassroom(ctx, payload.ClassroomID)
	if err != nil {
		return err
	}

	doubt := classroom.FindDoubt(payload.DoubtID)
	if doubt == nil {
		return ErrDoubtNotFound
	}

	if doubt.Answered() {
		return ErrDoubtAnswered
	}
	if doubt.AskedBy == actor.ID {
		return ErrOwnDoubtVote
	}
	if doubt.VotedBy(actor.ID) {
		return ErrAlreadyVoted
	}

	doubt.PlusOnes++
	doubt.PlusOneBy = append(doubt.PlusOneBy, actor.ID)
	doubt.UpdatedAt = s.now().UTC()

	return s.classrooms.Save(ctx, &classroom)
}

func (s *doubtService) Answer(ctx context.Context, actor Actor, payload dto.DoubtAnswerRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	if !actor.IsStaff() {
		return ErrAnswerForbidden
	}

	answer := strings.TrimSpace(s.sanitizer.Sanitize(payload.Answer))
	if answer == "" {
		return ErrEmptyContent
	}

	classroom, err := s.loadClassroom(ctx, payload.ClassroomID)
	if err != nil {
		return err
	}

	doubt := classroom.FindDoubt(payload.DoubtID)
	if doubt == nil {
		return ErrDoubtNotFound
	}

	if doubt.Answered() {
		return ErrDoubtAnswered
	}

	answeredBy := actor.ID
	doubt.Answer = answer
	doubt.AnsweredBy = &answeredBy
	doubt.UpdatedAt = s.now().UTC()

	if err := s.classrooms.Save(ctx, &classroom); err != nil {
		return err
	}

	s.logger.Info().Uint("classroom_id", classroom.ID).Str("doubt_id", doubt.ID).Msg("doubt answered")

	return nil
}

func (s *doubtService) List(ctx context.Context, classroomID uint) ([]dto.DoubtResponse, error) {
	classroom, err := s.loadClassroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(classroom.Doubts)*2)
	for _, doubt := range classroom.Doubts {
		ids = append(ids, doubt.AskedBy)
		if doubt.AnsweredBy != nil {
			ids = append(ids, *doubt.AnsweredBy)
		}
	}

	users, err := loadUserMap(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}

	return dto.NewDoubtResponseSlice(classroom.Doubts, users), nil
}

func (s *doubtService) loadClassroom(ctx context.Context, id uint) (models.Classroom, error) {
	classroom, err := s.classrooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Classroom{}, ErrClassroomNotFound
		}
		return models.Classroom{}, err
	}
	return classroom, nil
}
