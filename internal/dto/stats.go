package dto

import "github.com/noah-isme/qr-attendance-api/internal/models"

// RosterQuery filters the admin roster; it binds from query string or JSON body.
type RosterQuery struct {
	ClassID string `form:"class_id" json:"class_id"`
	Date    string `form:"date" json:"date"`
}

// StudentStatsResponse is returned by GET /student/stats/:student_id.
type StudentStatsResponse struct {
	StudentID string `json:"student_id"`
	models.AttendanceStats
	TotalClasses int `json:"total_classes"`
}

// RosterStat is one student's line in the roster summary.
type RosterStat struct {
	StudentID  string  `json:"student_id"`
	Name       string  `json:"name"`
	RollNo     *string `json:"rollno"`
	Attended   int     `json:"attended"`
	Total      int     `json:"total"`
	Missed     int     `json:"missed"`
	Percentage float64 `json:"percentage"`
}

// RosterResponse is the admin attendance view.
type RosterResponse struct {
	Records        []models.AttendanceRecord `json:"records"`
	Stats          []RosterStat              `json:"stats"`
	CurrentQRToken *string                   `json:"current_qr_token"`
}
