package models

import (
	"time"

	"gorm.io/datatypes"
)

// Classroom is the top-level grouping aggregate. Doubts, posts and folders live
// inside the classroom row and have no lifecycle of their own: every mutation is
// a load of the whole row, an in-memory change, and a save of the whole row.
type Classroom struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	Name        string                      `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description string                      `gorm:"type:text" json:"description"`
	CreatedBy   uint                        `gorm:"index;not null" json:"created_by"`
	InviteCode  string                      `gorm:"size:16;uniqueIndex" json:"invite_code"`
	Members     datatypes.JSONSlice[uint]   `json:"members"`
	Doubts      datatypes.JSONSlice[Doubt]  `json:"doubts"`
	Posts       datatypes.JSONSlice[Post]   `json:"posts"`
	Folders     datatypes.JSONSlice[Folder] `json:"folders"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// Doubt is a question raised inside a classroom, optionally answered once by a
// staff member, upvoted at most once per user.
type Doubt struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	AskedBy    uint      `json:"asked_by"`
	Answer     string    `json:"answer,omitempty"`
	AnsweredBy *uint     `json:"answered_by,omitempty"`
	PlusOnes   int       `json:"plus_ones"`
	PlusOneBy  []uint    `json:"plus_one_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Answered reports whether the doubt already carries an answer.
func (d Doubt) Answered() bool {
	return d.Answer != ""
}

// VotedBy reports whether the user already upvoted the doubt.
func (d Doubt) VotedBy(userID uint) bool {
	for _, id := range d.PlusOneBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Post kinds distinguish what a classroom post refers to.
const (
	PostKindAnnouncement = "announcement"
	PostKindAssignment   = "assignment"
)

// PostRef is the tagged reference a post carries: either a plain announcement
// or a pointer at an assignment aggregate.
type PostRef struct {
	Kind         string `json:"kind"`
	AssignmentID uint   `json:"assignment_id,omitempty"`
}

// AnnouncementRef builds the announcement variant.
func AnnouncementRef() PostRef {
	return PostRef{Kind: PostKindAnnouncement}
}

// AssignmentRef builds the assignment variant pointing at the given aggregate.
func AssignmentRef(assignmentID uint) PostRef {
	return PostRef{Kind: PostKindAssignment, AssignmentID: assignmentID}
}

// Post is a feed entry on the classroom wall.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	CreatedBy uint      `json:"created_by"`
	Ref       PostRef   `json:"ref"`
	CreatedAt time.Time `json:"created_at"`
}

// Folder groups uploaded files inside the classroom file manager.
type Folder struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedBy uint       `json:"created_by"`
	Files     []FileMeta `json:"files"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FindFile returns the file record with the given id, if present.
func (f Folder) FindFile(fileID string) (FileMeta, bool) {
	for _, file := range f.Files {
		if file.ID == fileID {
			return file, true
		}
	}
	return FileMeta{}, false
}

// FileMeta describes one stored object referenced by a folder, an assignment
// attachment or a submission. The blob itself lives in the object store; the
// record owning the reference is responsible for deleting the blob.
type FileMeta struct {
	ID          string    `json:"id"`
	BlobID      string    `json:"blob_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  uint      `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// FindDoubt returns a pointer into the classroom's doubt list so callers can
// mutate it in place before saving the aggregate.
func (c *Classroom) FindDoubt(doubtID string) *Doubt {
	for i := range c.Doubts {
		if c.Doubts[i].ID == doubtID {
			return &c.Doubts[i]
		}
	}
	return nil
}

// FindFolder returns a pointer into the classroom's folder list.
func (c *Classroom) FindFolder(folderID string) *Folder {
	for i := range c.Folders {
		if c.Folders[i].ID == folderID {
			return &c.Folders[i]
		}
	}
	return nil
}

// HasMember reports whether the user already belongs to the classroom.
func (c Classroom) HasMember(userID uint) bool {
	for _, id := range c.Members {
		if id == userID {
			return true
		}
	}
	return false
}
