package dto

import "github.com/noah-isme/qr-attendance-api/internal/models"

// MarkAttendanceRequest is the payload for POST /student/mark_attendance.
type MarkAttendanceRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	QRToken   string `json:"qr_token" validate:"required"`
}

// MarkAttendanceResponse reports the marking outcome.
type MarkAttendanceResponse struct {
	Status        models.AttendanceStatus `json:"status"`
	AlreadyMarked bool                    `json:"already_marked"`
	RecordID      string                  `json:"record_id,omitempty"`
	ClassName     string                  `json:"class_name"`
	ClassCode     string                  `json:"class_code"`
	Message       string                  `json:"message"`
}

// UpdateAttendanceRequest is the payload for POST /admin/update_attendance.
type UpdateAttendanceRequest struct {
	RecordID string `json:"record_id" validate:"required"`
	Status   string `json:"status" validate:"required,attendance_status"`
}

// DeleteStudentRequest is the payload for POST /admin/delete_student.
type DeleteStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// DeleteStudentResponse reports how many attendance rows were removed.
type DeleteStudentResponse struct {
	StudentID         string `json:"student_id"`
	DeletedAttendance int64  `json:"deleted_attendance"`
	Message           string `json:"message"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
