package models

import "time"

// Session is one class meeting; its token is the QR payload.
type Session struct {
	Token     string    `db:"token" json:"token"`
	ClassName string    `db:"class_name" json:"class_name"`
	ClassCode string    `db:"class_code" json:"class_code"`
	ClassID   string    `db:"class_id" json:"class_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	CreatedBy *string   `db:"created_by" json:"created_by,omitempty"`
}
