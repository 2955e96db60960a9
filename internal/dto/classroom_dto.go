package dto

import (
	"time"

	"github.com/kakshahq/kaksha-api/internal/models"
)

// ClassroomCreateRequest describes the payload for creating a classroom.
type ClassroomCreateRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=255"`
	Description string `json:"description"`
}

// ClassroomJoinRequest carries the invite code used to join a classroom.
type ClassroomJoinRequest struct {
	InviteCode string `json:"invite_code" validate:"required"`
}

// ClassroomResponse is the serialized classroom returned to API clients.
type ClassroomResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   uint      `json:"created_by"`
	InviteCode  string    `json:"invite_code"`
	Members     []uint    `json:"members"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewClassroomResponse converts a model into a DTO.
func NewClassroomResponse(classroom models.Classroom) ClassroomResponse {
	return ClassroomResponse{
		ID:          classroom.ID,
		Name:        classroom.Name,
		Description: classroom.Description,
		CreatedBy:   classroom.CreatedBy,
		InviteCode:  classroom.InviteCode,
		Members:     classroom.Members,
		MemberCount: len(classroom.Members),
		CreatedAt:   classroom.CreatedAt,
	}
}

// NewClassroomResponseSlice converts a slice of models into DTOs.
func NewClassroomResponseSlice(classrooms []models.Classroom) []ClassroomResponse {
	responses := make([]ClassroomResponse, 0, len(classrooms))
	for _, classroom := range classrooms {
		responses = append(responses, NewClassroomResponse(classroom))
	}

	return responses
}
