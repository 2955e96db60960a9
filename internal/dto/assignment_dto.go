package dto

import (
	"time"

	"github.com/kakshahq/kaksha-api/internal/models"
)

// AssignmentCreateRequest describes the multipart form fields for creating an
// assignment; attachments arrive as separate multipart files.
type AssignmentCreateRequest struct {
	Title       string `form:"title" json:"title" validate:"required,min=3"`
	Description string `form:"description" json:"description"`
	ClassroomID uint   `form:"kaksha_id" json:"kaksha_id" validate:"required"`
	DueDate     string `form:"due_date" json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// FileResponse is the serialized metadata of a stored object reference.
type FileResponse struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// NewFileResponse converts a file record into a DTO.
func NewFileResponse(file models.FileMeta) FileResponse {
	return FileResponse{
		ID:          file.ID,
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Size:        file.Size,
		UploadedAt:  file.UploadedAt,
	}
}

// NewFileResponseSlice converts a list of file records.
func NewFileResponseSlice(files []models.FileMeta) []FileResponse {
	responses := make([]FileResponse, 0, len(files))
	for _, file := range files {
		responses = append(responses, NewFileResponse(file))
	}

	return responses
}

// ClassroomSummary is the compact classroom shape used when expanding the
// owning classroom on assignment reads.
type ClassroomSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// AssignmentResponse is the serialized assignment returned to API clients.
type AssignmentResponse struct {
	ID          uint              `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Classroom   *ClassroomSummary `json:"kaksha,omitempty"`
	CreatedBy   uint              `json:"created_by"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	Grade       *float64          `json:"grade,omitempty"`
	Attachments []FileResponse    `json:"attachments"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewAssignmentResponse converts a model, optionally expanding its classroom.
func NewAssignmentResponse(assignment models.Assignment, classroom *models.Classroom) AssignmentResponse {
	response := AssignmentResponse{
		ID:          assignment.ID,
		Title:       assignment.Title,
		Description: assignment.Description,
		CreatedBy:   assignment.CreatedBy,
		DueDate:     assignment.DueDate,
		Grade:       assignment.Grade,
		Attachments: NewFileResponseSlice(assignment.Attachments),
		CreatedAt:   assignment.CreatedAt,
	}

	if classroom != nil {
		response.Classroom = &ClassroomSummary{
			ID:          classroom.ID,
			Name:        classroom.Name,
			Description: classroom.Description,
		}
	}

	return response
}

// SubmissionResponse is one student's submission with the student expanded.
type SubmissionResponse struct {
	Student     *UserSummary   `json:"student,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Late        bool           `json:"late"`
	Files       []FileResponse `json:"files"`
	Marks       *float64       `json:"marks,omitempty"`
	Feedback    string         `json:"feedback,omitempty"`
}

// SubmissionListResponse groups an assignment's submissions under its title.
type SubmissionListResponse struct {
	AssignmentID uint                 `json:"assignment_id"`
	Title        string               `json:"title"`
	Submissions  []SubmissionResponse `json:"submissions"`
}

// NewSubmissionListResponse converts submissions using a preloaded user map.
func NewSubmissionListResponse(assignment models.Assignment, users map[uint]models.User) SubmissionListResponse {
	submissions := make([]SubmissionResponse, 0, len(assignment.Submissions))
	for _, submission := range assignment.Submissions {
		submissions = append(submissions, SubmissionResponse{
			Student:     SummaryFor(users, submission.StudentID),
			SubmittedAt: submission.SubmittedAt,
			Late:        submission.Late,
			Files:       NewFileResponseSlice(submission.Files),
			Marks:       submission.Marks,
			Feedback:    submission.Feedback,
		})
	}

	return SubmissionListResponse{
		AssignmentID: assignment.ID,
		Title:        assignment.Title,
		Submissions:  submissions,
	}
}
