package dto

import (
	"fmt"
	"time"

	"github.com/kakshahq/kaksha-api/internal/models"
)

// FolderCreateRequest describes the payload for creating a folder.
type FolderCreateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// FileTreeNode is one entry in the classroom file-manager tree. Folders carry
// children; files carry size and uploader details.
type FileTreeNode struct {
	Type        string         `json:"type"`
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Size        string         `json:"size,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
	CreatedBy   *UserSummary   `json:"created_by,omitempty"`
	UploadedBy  *UserSummary   `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
	UploadedAt  time.Time      `json:"uploaded_at,omitempty"`
	Children    []FileTreeNode `json:"children,omitempty"`
}

// NewFileTree builds the nested folder/file tree with user expansion.
func NewFileTree(folders []models.Folder, users map[uint]models.User) []FileTreeNode {
	tree := make([]FileTreeNode, 0, len(folders))
	for _, folder := range folders {
		children := make([]FileTreeNode, 0, len(folder.Files))
		for _, file := range folder.Files {
			children = append(children, FileTreeNode{
				Type:        "file",
				ID:          file.ID,
				Name:        file.Filename,
				Size:        humanSize(file.Size),
				ContentType: file.ContentType,
				UploadedBy:  SummaryFor(users, file.UploadedBy),
				UploadedAt:  file.UploadedAt,
			})
		}

		tree = append(tree, FileTreeNode{
			Type:      "folder",
			ID:        folder.ID,
			Name:      folder.Name,
			CreatedBy: SummaryFor(users, folder.CreatedBy),
			CreatedAt: folder.CreatedAt,
			Children:  children,
		})
	}

	return tree
}

func humanSize(size int64) string {
	return fmt.Sprintf("%.2f KB", float64(size)/1024)
}
