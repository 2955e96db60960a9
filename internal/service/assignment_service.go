package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kakshahq/kaksha-api/internal/dto"
	"github.com/kakshahq/kaksha-api/internal/models"
	"github.com/kakshahq/kaksha-api/internal/repository"
	"github.com/kakshahq/kaksha-api/pkg/blobstore"
)

var (
	// ErrAssignmentNotFound indicates the requested assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrAssignmentForbidden indicates a non-staff caller tried to create one.
	ErrAssignmentForbidden = errors.New("only teachers or admins can create assignments")
	// ErrOnlyStudents indicates a non-student tried to submit.
	ErrOnlyStudents = errors.New("only students can submit assignments")
	// ErrAlreadySubmitted indicates the student already has a submission.
	ErrAlreadySubmitted = errors.New("assignment already submitted")
	// ErrSubmissionNotFound indicates no submission exists for the student.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrFileNotFound indicates the file record is absent from its aggregate.
	ErrFileNotFound = errors.New("file not found")
)

// AssignmentService exposes assignment use cases, including attachment and
// submission file streaming.
type AssignmentService interface {
	Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest, files []*multipart.FileHeader) (dto.AssignmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	Submit(ctx context.Context, actor Actor, assignmentID uint, files []*multipart.FileHeader) error
	ListSubmissions(ctx context.Context, assignmentID uint) (dto.SubmissionListResponse, error)
	OpenAttachment(ctx context.Context, assignmentID uint, fileID string) (models.FileMeta, io.ReadCloser, error)
	OpenSubmissionFile(ctx context.Context, assignmentID, studentID uint, fileID string) (models.FileMeta, io.ReadCloser, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	classrooms  repository.ClassroomRepository
	users       repository.UserRepository
	store       blobstore.Store
	validator   *validator.Validate
	limits      uploadLimits
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService builds the assignment service.
func NewAssignmentService(
	assignments repository.AssignmentRepository,
	classrooms repository.ClassroomRepository,
	users repository.UserRepository,
	store blobstore.Store,
	validate *validator.Validate,
	maxUploadMB, maxFiles int,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		classrooms:  classrooms,
		users:       users,
		store:       store,
		validator:   validate,
		limits:      limitsFrom(maxUploadMB, maxFiles),
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest, files []*multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if !actor.IsStaff() {
		return dto.AssignmentResponse{}, ErrAssignmentForbidden
	}

	classroom, err := s.classrooms.GetByID(ctx, payload.ClassroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrClassroomNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if classroom.CreatedBy != actor.ID {
		return dto.AssignmentResponse{}, ErrNotClassroomCreator
	}

	var dueDate *time.Time
	if payload.DueDate != "" {
		parsed, err := time.Parse(time.RFC3339, payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", err)
		}
		dueDate = &parsed
	}

	var attachments []models.FileMeta
	if len(files) > 0 {
		attachments, err = storeMultipartFiles(ctx, s.store, files, actor.ID, "attachment", s.limits)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
	}

	assignment := models.Assignment{
		Title:       payload.Title,
		Description: payload.Description,
		ClassroomID: classroom.ID,
		CreatedBy:   actor.ID,
		DueDate:     dueDate,
		Attachments: attachments,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	classroom.Posts = append(classroom.Posts, models.Post{
		ID:        uuid.NewString(),
		Title:     assignment.Title,
		Content:   assignmentPostContent(assignment.Title, dueDate),
		CreatedBy: actor.ID,
		Ref:       models.AssignmentRef(assignment.ID),
		CreatedAt: s.now().UTC(),
	})
	if err := s.classrooms.Save(ctx, &classroom); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Uint("classroom_id", classroom.ID).
		Int("attachments", len(attachments)).
		Msg("assignment created")

	return dto.NewAssignmentResponse(assignment, &classroom), nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.loadAssignment(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	var classroom *models.Classroom
	if loaded, err := s.classrooms.GetByID(ctx, assignment.ClassroomID); err == nil {
		classroom = &loaded
	}

	return dto.NewAssignmentResponse(assignment, classroom), nil
}

func (s *assignmentService) Submit(ctx context.Context, actor Actor, assignmentID uint, files []*multipart.FileHeader) error {
	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}

	if actor.Role != models.RoleStudent {
		return ErrOnlyStudents
	}

	if _, exists := assignment.SubmissionBy(actor.ID); exists {
		return ErrAlreadySubmitted
	}

	records, err := storeMultipartFiles(ctx, s.store, files, actor.ID, "submission", s.limits)
	if err != nil {
		return err
	}

	submittedAt := s.now().UTC()
	assignment.Submissions = append(assignment.Submissions, models.Submission{
		StudentID:   actor.ID,
		SubmittedAt: submittedAt,
		Late:        assignment.IsPastDue(submittedAt),
		Files:       records,
	})

	if err := s.assignments.Save(ctx, &assignment); err != nil {
		return err
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Uint("student_id", actor.ID).
		Int("files", len(records)).
		Msg("assignment submitted")

	return nil
}

func (s *assignmentService) ListSubmissions(ctx context.Context, assignmentID uint) (dto.SubmissionListResponse, error) {
	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}

	ids := make([]uint, 0, len(assignment.Submissions))
	for _, submission := range assignment.Submissions {
		ids = append(ids, submission.StudentID)
	}

	users, err := loadUserMap(ctx, s.users, ids)
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}

	return dto.NewSubmissionListResponse(assignment, users), nil
}

func (s *assignmentService) OpenAttachment(ctx context.Context, assignmentID uint, fileID string) (models.FileMeta, io.ReadCloser, error) {
	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return models.FileMeta{}, nil, err
	}

	file, ok := assignment.FindAttachment(fileID)
	if !ok {
		return models.FileMeta{}, nil, ErrFileNotFound
	}

	return s.openBlob(ctx, file)
}

func (s *assignmentService) OpenSubmissionFile(ctx context.Context, assignmentID, studentID uint, fileID string) (models.FileMeta, io.ReadCloser, error) {
	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return models.FileMeta{}, nil, err
	}

	submission, ok := assignment.SubmissionBy(studentID)
	if !ok {
		return models.FileMeta{}, nil, ErrSubmissionNotFound
	}

	for _, file := range submission.Files {
		if file.ID == fileID {
			return s.openBlob(ctx, file)
		}
	}

	return models.FileMeta{}, nil, ErrFileNotFound
}

func (s *assignmentService) openBlob(ctx context.Context, file models.FileMeta) (models.FileMeta, io.ReadCloser, error) {
	_, reader, err := s.store.Open(ctx, file.BlobID)
	if err != nil {
		return models.FileMeta{}, nil, err
	}
	return file, reader, nil
}

func (s *assignmentService) loadAssignment(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}

func assignmentPostContent(title string, dueDate *time.Time) string {
	if dueDate == nil {
		return fmt.Sprintf("%s is now live.", title)
	}
	return fmt.Sprintf("%s is now live. Due on %s.", title, dueDate.Format("Mon Jan 2 2006"))
}
