package service

import "github.com/kakshahq/kaksha-api/internal/models"

// Actor identifies the authenticated caller performing an operation.
type Actor struct {
	ID   uint
	Role string
}

// IsStaff reports whether the actor holds a teacher or admin role.
func (a Actor) IsStaff() bool {
	return a.Role == models.RoleTeacher || a.Role == models.RoleAdmin
}
