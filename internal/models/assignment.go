package models

import (
	"time"

	"gorm.io/datatypes"
)

// Assignment is a top-level aggregate with its own identity. It references the
// owning classroom and embeds its attachments and per-student submissions.
type Assignment struct {
	ID          uint                            `gorm:"primaryKey" json:"id"`
	Title       string                          `gorm:"size:255;not null" json:"title"`
	Description string                          `gorm:"type:text" json:"description"`
	ClassroomID uint                            `gorm:"index;not null" json:"classroom_id"`
	CreatedBy   uint                            `gorm:"index;not null" json:"created_by"`
	DueDate     *time.Time                      `json:"due_date,omitempty"`
	Grade       *float64                        `json:"grade,omitempty"`
	Attachments datatypes.JSONSlice[FileMeta]   `json:"attachments"`
	Submissions datatypes.JSONSlice[Submission] `json:"submissions"`
	CreatedAt   time.Time                       `json:"created_at"`
	UpdatedAt   time.Time                       `json:"updated_at"`
}

// Submission is one student's answer to an assignment. At most one submission
// per student is kept; a second attempt is rejected outright.
type Submission struct {
	StudentID   uint       `json:"student_id"`
	SubmittedAt time.Time  `json:"submitted_at"`
	Late        bool       `json:"late,omitempty"`
	Files       []FileMeta `json:"files"`
	Marks       *float64   `json:"marks,omitempty"`
	Feedback    string     `json:"feedback,omitempty"`
}

// SubmissionBy returns the submission made by the student, if any.
func (a Assignment) SubmissionBy(studentID uint) (Submission, bool) {
	for _, sub := range a.Submissions {
		if sub.StudentID == studentID {
			return sub, true
		}
	}
	return Submission{}, false
}

// FindAttachment returns the attachment whose file id matches.
func (a Assignment) FindAttachment(fileID string) (FileMeta, bool) {
	for _, att := range a.Attachments {
		if att.ID == fileID {
			return att, true
		}
	}
	return FileMeta{}, false
}

// IsPastDue reports whether the deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return a.DueDate != nil && reference.After(*a.DueDate)
}
