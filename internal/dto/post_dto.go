package dto

import (
	"time"

	"github.com/kakshahq/kaksha-api/internal/models"
)

// PostRefResponse is the tagged reference a post carries.
type PostRefResponse struct {
	Kind         string `json:"kind"`
	AssignmentID uint   `json:"assignment_id,omitempty"`
}

// PostResponse is a serialized classroom wall entry.
type PostResponse struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Content   string          `json:"content,omitempty"`
	CreatedBy *UserSummary    `json:"created_by,omitempty"`
	Ref       PostRefResponse `json:"ref"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewPostResponse converts a post using a preloaded user map for expansion.
func NewPostResponse(post models.Post, users map[uint]models.User) PostResponse {
	return PostResponse{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		CreatedBy: SummaryFor(users, post.CreatedBy),
		Ref: PostRefResponse{
			Kind:         post.Ref.Kind,
			AssignmentID: post.Ref.AssignmentID,
		},
		CreatedAt: post.CreatedAt,
	}
}

// NewPostResponseSlice converts the classroom's post list.
func NewPostResponseSlice(posts []models.Post, users map[uint]models.User) []PostResponse {
	responses := make([]PostResponse, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, NewPostResponse(post, users))
	}

	return responses
}
