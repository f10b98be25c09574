package models

import (
	"strings"
	"time"
)

// UserRole distinguishes administrators from students.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleStudent UserRole = "student"
)

// ParseRole accepts a role name in any casing.
func ParseRole(raw string) (UserRole, bool) {
	switch UserRole(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleStudent:
		return RoleStudent, true
	default:
		return "", false
	}
}

// User is a row of the users table. Students carry roll number, class and semester.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	RollNo       *string   `db:"rollno" json:"rollno"`
	ClassID      *string   `db:"class_id" json:"class_id"`
	Semester     *string   `db:"semester" json:"semester"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// IsStudent reports whether the user has the student role.
func (u *User) IsStudent() bool {
	return u != nil && u.Role == RoleStudent
}

// ClassScope returns the class identifier used to scope the student's sessions.
func (u *User) ClassScope() string {
	if u == nil || u.ClassID == nil {
		return ""
	}
	return strings.TrimSpace(*u.ClassID)
}
