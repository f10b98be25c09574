package dto

import (
	"time"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

// CreateSessionRequest is the payload for POST /admin/create_session.
type CreateSessionRequest struct {
	ClassName string `json:"class_name" validate:"required"`
	ClassCode string `json:"class_code" validate:"required"`
	ClassID   string `json:"class_id"`
	Date      string `json:"date"`
	CreatedBy string `json:"created_by"`
}

// CreateSessionResponse carries the generated QR token.
type CreateSessionResponse struct {
	QRToken   string    `json:"qr_token"`
	ClassName string    `json:"class_name"`
	ClassCode string    `json:"class_code"`
	ClassID   string    `json:"class_id"`
	CreatedAt time.Time `json:"created_at"`
	Message   string    `json:"message"`
}

// SessionQuery filters GET /admin/sessions.
type SessionQuery struct {
	ClassID string `form:"class_id" json:"class_id"`
	Date    string `form:"date" json:"date"`
}

// SessionListResponse lists sessions newest first.
type SessionListResponse struct {
	Sessions       []models.Session `json:"sessions"`
	CurrentQRToken *string          `json:"current_qr_token"`
}
