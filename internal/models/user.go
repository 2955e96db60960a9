package models

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"time"

	"gorm.io/datatypes"
)

// Role values assignable to a user.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User represents an account that can join and create classrooms.
type User struct {
	ID             uint                      `gorm:"primaryKey" json:"id"`
	Username       string                    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email          string                    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FirstName      string                    `gorm:"size:128" json:"first_name"`
	LastName       string                    `gorm:"size:128" json:"last_name"`
	Photo          string                    `gorm:"size:255;default:default.png" json:"photo"`
	HashedPassword string                    `gorm:"size:128" json:"-"`
	Salt           string                    `gorm:"size:64" json:"-"`
	Role           string                    `gorm:"size:16;not null;default:student" json:"role"`
	Bio            string                    `gorm:"type:text" json:"bio"`
	Status         string                    `gorm:"size:255" json:"status"`
	Designation    string                    `gorm:"size:128" json:"designation"`
	Classrooms     datatypes.JSONSlice[uint] `json:"classrooms"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// SetPassword derives a fresh salt and stores the keyed hash of the plaintext.
func (u *User) SetPassword(plaintext string) error {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return err
	}

	u.Salt = hex.EncodeToString(salt)
	u.HashedPassword = hashPassword(plaintext, u.Salt)
	return nil
}

// Authenticate recomputes the keyed hash with the stored salt and compares.
func (u User) Authenticate(plaintext string) bool {
	if u.HashedPassword == "" || u.Salt == "" {
		return false
	}

	computed := hashPassword(plaintext, u.Salt)
	return hmac.Equal([]byte(computed), []byte(u.HashedPassword))
}

// IsStaff reports whether the user holds a teacher or admin role.
func (u User) IsStaff() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}

// MemberOf reports whether the classroom id appears in the user's membership list.
func (u User) MemberOf(classroomID uint) bool {
	for _, id := range u.Classrooms {
		if id == classroomID {
			return true
		}
	}
	return false
}

// hashPassword matches the credential format of existing user records:
// hex-encoded HMAC-SHA1 of the password keyed with the per-user salt.
func hashPassword(plaintext, salt string) string {
	mac := hmac.New(sha1.New, []byte(salt))
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}
