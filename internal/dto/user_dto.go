package dto

import (
	"time"

	"github.com/kakshahq/kaksha-api/internal/models"
)

// UserResponse is the full profile returned to the account owner. Credential
// fields never leave the model.
type UserResponse struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	Photo       string    `json:"photo,omitempty"`
	Role        string    `json:"role"`
	Bio         string    `json:"bio,omitempty"`
	Status      string    `json:"status,omitempty"`
	Designation string    `json:"designation,omitempty"`
	Classrooms  []uint    `json:"classrooms"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Photo:       user.Photo,
		Role:        user.Role,
		Bio:         user.Bio,
		Status:      user.Status,
		Designation: user.Designation,
		Classrooms:  user.Classrooms,
		CreatedAt:   user.CreatedAt,
	}
}

// UserSummary is the compact shape used when expanding user references on
// doubts, posts, submissions and folder files.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// NewUserSummary converts a model into its summary form.
func NewUserSummary(user models.User) UserSummary {
	return UserSummary{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}

// SummaryFor looks up the summary for a user id in a preloaded map; unknown
// ids resolve to nil so deleted users degrade gracefully in read paths.
func SummaryFor(users map[uint]models.User, id uint) *UserSummary {
	if user, ok := users[id]; ok {
		summary := NewUserSummary(user)
		return &summary
	}
	return nil
}

// UserUpdateRequest describes the mutable profile fields.
type UserUpdateRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=128"`
	LastName    *string `json:"last_name" validate:"omitempty,max=128"`
	Photo       *string `json:"photo" validate:"omitempty,max=255"`
	Bio         *string `json:"bio"`
	Status      *string `json:"status" validate:"omitempty,max=255"`
	Designation *string `json:"designation" validate:"omitempty,max=128"`
}
