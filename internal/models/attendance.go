package models

import (
	"strings"
	"time"
)

// AttendanceStatus is the state of a student's attendance for one session.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "Present"
	AttendanceStatusAbsent  AttendanceStatus = "Absent"
)

// Valid returns true for the canonical spellings.
func (s AttendanceStatus) Valid() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusAbsent
}

// ParseAttendanceStatus normalises any casing to the canonical value.
func ParseAttendanceStatus(raw string) (AttendanceStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "present":
		return AttendanceStatusPresent, true
	case "absent":
		return AttendanceStatusAbsent, true
	default:
		return "", false
	}
}

// NormalizeToken trims and upper-cases a scanned session token.
func NormalizeToken(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Attendance is a row of the attendance table; (student_id, session_token) is unique.
type Attendance struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	SessionToken string           `db:"session_token" json:"session_token"`
	Status       AttendanceStatus `db:"status" json:"status"`
	MarkedAt     time.Time        `db:"marked_at" json:"marked_at"`
}

// AttendanceRecord is an attendance row joined with its student and session.
type AttendanceRecord struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	StudentName  string           `db:"student_name" json:"student_name"`
	RollNo       *string          `db:"roll_no" json:"roll_no"`
	SessionToken string           `db:"session_token" json:"session_token"`
	ClassName    string           `db:"class_name" json:"class_name"`
	ClassCode    string           `db:"class_code" json:"class_code"`
	Status       AttendanceStatus `db:"status" json:"status"`
	MarkedAt     time.Time        `db:"marked_at" json:"timestamp"`
}

// MarkResult describes the outcome of a mark attempt.
type MarkResult struct {
	RecordID      string
	AlreadyMarked bool
	Session       Session
}
