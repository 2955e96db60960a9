package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kakshahq/kaksha-api/internal/dto"
	"github.com/kakshahq/kaksha-api/internal/models"
	"github.com/kakshahq/kaksha-api/internal/observability"
	"github.com/kakshahq/kaksha-api/internal/repository"
	"github.com/kakshahq/kaksha-api/pkg/blobstore"
)

var (
	// ErrClassroomNotFound indicates the requested classroom does not exist.
	ErrClassroomNotFound = errors.New("classroom not found")
	// ErrClassroomNameTaken indicates a classroom with the name already exists.
	ErrClassroomNameTaken = errors.New("classroom with this name already exists")
	// ErrInviteCodeNotFound indicates no classroom matches the invite code.
	ErrInviteCodeNotFound = errors.New("no classroom matches this invite code")
	// ErrAlreadyMember indicates the user already joined the classroom.
	ErrAlreadyMember = errors.New("already a member of this classroom")
	// ErrOnlyTeachers indicates the caller lacks the teacher role.
	ErrOnlyTeachers = errors.New("only teachers can create a classroom")
	// ErrNotClassroomCreator indicates a creator-only operation was attempted
	// by someone else.
	ErrNotClassroomCreator = errors.New("only the classroom creator may do this")
)

// ClassroomService exposes classroom aggregate use cases, including the
// ordered cascade delete.
type ClassroomService interface {
	Create(ctx context.Context, actor Actor, payload dto.ClassroomCreateRequest) (dto.ClassroomResponse, error)
	Join(ctx context.Context, actor Actor, payload dto.ClassroomJoinRequest) (dto.ClassroomResponse, error)
	ListMine(ctx context.Context, actor Actor) ([]dto.ClassroomResponse, error)
	ListPosts(ctx context.Context, classroomID uint) ([]dto.PostResponse, error)
	Delete(ctx context.Context, actor Actor, classroomID uint) error
}

type classroomService struct {
	classrooms  repository.ClassroomRepository
	assignments repository.AssignmentRepository
	users       repository.UserRepository
	store       blobstore.Store
	cache       *redis.Client
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewClassroomService builds the classroom service.
func NewClassroomService(
	classrooms repository.ClassroomRepository,
	assignments repository.AssignmentRepository,
	users repository.UserRepository,
	store blobstore.Store,
	cache *redis.Client,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger zerolog.Logger,
) ClassroomService {
	return &classroomService{
		classrooms:  classrooms,
		assignments: assignments,
		users:       users,
		store:       store,
		cache:       cache,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger.With().Str("component", "classroom_service").Logger(),
		now:         time.Now,
	}
}

func (s *classroomService) Create(ctx context.Context, actor Actor, payload dto.ClassroomCreateRequest) (dto.ClassroomResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassroomResponse{}, err
	}

	if actor.Role != models.RoleTeacher {
		return dto.ClassroomResponse{}, ErrOnlyTeachers
	}

	if _, err := s.classrooms.GetByName(ctx, payload.Name); err == nil {
		return dto.ClassroomResponse{}, ErrClassroomNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ClassroomResponse{}, err
	}

	code, err := newInviteCode()
	if err != nil {
		return dto.ClassroomResponse{}, err
	}

	classroom := models.Classroom{
		Name:        payload.Name,
		Description: payload.Description,
		CreatedBy:   actor.ID,
		InviteCode:  code,
		Members:     []uint{},
	}

	if err := s.classrooms.Create(ctx, &classroom); err != nil {
		return dto.ClassroomResponse{}, err
	}

	creator, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return dto.ClassroomResponse{}, err
	}
	creator.Classrooms = append(creator.Classrooms, classroom.ID)
	if err := s.users.Save(ctx, &creator); err != nil {
		return dto.ClassroomResponse{}, err
	}

	s.invalidateListCache(ctx, actor.ID)
	s.logger.Info().Uint("classroom_id", classroom.ID).Uint("created_by", actor.ID).Msg("classroom created")

	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) Join(ctx context.Context, actor Actor, payload dto.ClassroomJoinRequest) (dto.ClassroomResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassroomResponse{}, err
	}

	classroom, err := s.classrooms.GetByInviteCode(ctx, payload.InviteCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassroomResponse{}, ErrInviteCodeNotFound
		}
		return dto.ClassroomResponse{}, err
	}

	if classroom.HasMember(actor.ID) {
		return dto.ClassroomResponse{}, ErrAlreadyMember
	}

	classroom.Members = append(classroom.Members, actor.ID)
	if err := s.classrooms.Save(ctx, &classroom); err != nil {
		return dto.ClassroomResponse{}, err
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return dto.ClassroomResponse{}, err
	}
	if !user.MemberOf(classroom.ID) {
		user.Classrooms = append(user.Classrooms, classroom.ID)
		if err := s.users.Save(ctx, &user); err != nil {
			return dto.ClassroomResponse{}, err
		}
	}

	s.invalidateListCache(ctx, actor.ID)
	s.logger.Info().Uint("classroom_id", classroom.ID).Uint("user_id", actor.ID).Msg("user joined classroom")

	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) ListMine(ctx context.Context, actor Actor) ([]dto.ClassroomResponse, error) {
	cacheKey := listCacheKey(actor.ID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response []dto.ClassroomResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("user_id", actor.ID).Msg("classroom list cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read classroom list cache")
		}
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	classrooms, err := s.classrooms.GetByIDs(ctx, user.Classrooms)
	if err != nil {
		return nil, err
	}

	response := dto.NewClassroomResponseSlice(classrooms)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store classroom list cache")
			}
		}
	}

	return response, nil
}

func (s *classroomService) ListPosts(ctx context.Context, classroomID uint) ([]dto.PostResponse, error) {
	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		return nil, err
	}

	ids := make([]uint, 0, len(classroom.Posts))
	for _, post := range classroom.Posts {
		ids = append(ids, post.CreatedBy)
	}

	users, err := loadUserMap(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}

	return dto.NewPostResponseSlice(classroom.Posts, users), nil
}

// Delete runs the ordered cascade: assignment blobs and rows first, then
// folder blobs, then membership back-references, then the classroom row.
// There is no rollback; a storage failure midway aborts and leaves earlier
// deletions applied. Blobs already gone are skipped so a partial cascade can
// be retried.
func (s *classroomService) Delete(ctx context.Context, actor Actor, classroomID uint) error {
	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassroomNotFound
		}
		return err
	}

	if classroom.CreatedBy != actor.ID {
		return ErrNotClassroomCreator
	}

	assignments, err := s.assignments.ListByClassroom(ctx, classroomID)
	if err != nil {
		return err
	}

	for _, assignment := range assignments {
		for _, attachment := range assignment.Attachments {
			if err := s.deleteBlob(ctx, attachment.BlobID); err != nil {
				return err
			}
		}
		for _, submission := range assignment.Submissions {
			for _, file := range submission.Files {
				if err := s.deleteBlob(ctx, file.BlobID); err != nil {
					return err
				}
			}
		}
		if err := s.assignments.Delete(ctx, assignment.ID); err != nil {
			return err
		}
	}

	for _, folder := range classroom.Folders {
		for _, file := range folder.Files {
			if err := s.deleteBlob(ctx, file.BlobID); err != nil {
				return err
			}
		}
	}

	affected := make([]uint, 0, len(classroom.Members)+1)
	affected = append(affected, classroom.Members...)
	affected = appendUnique(affected, classroom.CreatedBy)

	members, err := s.users.GetByIDs(ctx, affected)
	if err != nil {
		return err
	}
	for i := range members {
		member := members[i]
		pruned := removeID(member.Classrooms, classroomID)
		if len(pruned) == len(member.Classrooms) {
			continue
		}
		member.Classrooms = pruned
		if err := s.users.Save(ctx, &member); err != nil {
			return err
		}
	}

	if err := s.classrooms.Delete(ctx, classroomID); err != nil {
		return err
	}

	for _, id := range affected {
		s.invalidateListCache(ctx, id)
	}

	s.logger.Info().
		Uint("classroom_id", classroomID).
		Int("assignments", len(assignments)).
		Msg("classroom deleted")

	return nil
}

func (s *classroomService) deleteBlob(ctx context.Context, blobID string) error {
	err := s.store.Delete(ctx, blobID)
	if err == nil {
		observability.ObjectsDeleted().Inc()
		return nil
	}
	if errors.Is(err, blobstore.ErrNotFound) {
		s.logger.Warn().Str("blob_id", blobID).Msg("blob already absent during cascade")
		return nil
	}
	return fmt.Errorf("cascade aborted deleting blob %s: %w", blobID, err)
}

func (s *classroomService) invalidateListCache(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, listCacheKey(userID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to invalidate classroom list cache")
	}
}

func listCacheKey(userID uint) string {
	return fmt.Sprintf("classrooms:user:%d", userID)
}

func newInviteCode() (string, error) {
	raw := make([]byte, 4)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

func appendUnique(ids []uint, id uint) []uint {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []uint, target uint) []uint {
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != target {
			result = append(result, id)
		}
	}
	return result
}

func loadUserMap(ctx context.Context, users repository.UserRepository, ids []uint) (map[uint]models.User, error) {
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		unique = appendUnique(unique, id)
	}

	loaded, err := users.GetByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}

	result := make(map[uint]models.User, len(loaded))
	for _, user := range loaded {
		result[user.ID] = user
	}
	return result, nil
}
