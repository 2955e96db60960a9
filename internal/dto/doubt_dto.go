package dto

import (
	"time"

	"github.com/kakshahq/kaksha-api/internal/models"
)

// DoubtCreateRequest describes the payload for raising a doubt.
type DoubtCreateRequest struct {
	ClassroomID uint   `json:"kaksha_id" validate:"required"`
	Question    string `json:"question" validate:"required,min=3"`
}

// DoubtVoteRequest identifies the doubt receiving a plus-one.
type DoubtVoteRequest struct {
	ClassroomID uint   `json:"kaksha_id" validate:"required"`
	DoubtID     string `json:"doubt_id" validate:"required"`
}

// DoubtAnswerRequest carries a staff member's answer.
type DoubtAnswerRequest struct {
	ClassroomID uint   `json:"kaksha_id" validate:"required"`
	DoubtID     string `json:"doubt_id" validate:"required"`
	Answer      string `json:"answer" validate:"required"`
}

// DoubtResponse is the serialized doubt with user references expanded.
type DoubtResponse struct {
	ID         string       `json:"id"`
	Question   string       `json:"question"`
	Answer     string       `json:"answer,omitempty"`
	AskedBy    *UserSummary `json:"asked_by,omitempty"`
	AnsweredBy *UserSummary `json:"answered_by,omitempty"`
	PlusOnes   int          `json:"plus_ones"`
	CreatedAt  time.Time    `json:"created_at"`
}

// NewDoubtResponse converts a doubt using a preloaded user map for expansion.
func NewDoubtResponse(doubt models.Doubt, users map[uint]models.User) DoubtResponse {
	response := DoubtResponse{
		ID:        doubt.ID,
		Question:  doubt.Question,
		Answer:    doubt.Answer,
		AskedBy:   SummaryFor(users, doubt.AskedBy),
		PlusOnes:  doubt.PlusOnes,
		CreatedAt: doubt.CreatedAt,
	}

	if doubt.AnsweredBy != nil {
		response.AnsweredBy = SummaryFor(users, *doubt.AnsweredBy)
	}

	return response
}

// NewDoubtResponseSlice converts the classroom's doubt list.
func NewDoubtResponseSlice(doubts []models.Doubt, users map[uint]models.User) []DoubtResponse {
	responses := make([]DoubtResponse, 0, len(doubts))
	for _, doubt := range doubts {
		responses = append(responses, NewDoubtResponse(doubt, users))
	}

	return responses
}
