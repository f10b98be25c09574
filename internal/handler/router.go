package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers mounted by Register. Reports is optional.
type Handlers struct {
	Auth       *AuthHandler
	Sessions   *SessionHandler
	Attendance *AttendanceHandler
	Reports    *ReportHandler
	Health     *HealthHandler
}

// Register mounts every route under prefix.
func Register(r gin.IRouter, prefix string, h Handlers) {
	api := r.Group(prefix)

	api.GET("/health", h.Health.Health)
	api.GET("/ready", h.Health.Ready)
	api.GET("/metrics", h.Health.Prometheus)

	api.POST("/register", h.Auth.Register)
	api.POST("/login", h.Auth.Login)

	admin := api.Group("/admin")
	admin.POST("/create_session", h.Sessions.CreateSession)
	admin.GET("/sessions", h.Sessions.ListSessions)
	admin.GET("/sessions/:token/qr", h.Sessions.SessionQR)
	admin.GET("/attendance", h.Attendance.Roster)
	admin.POST("/attendance", h.Attendance.Roster)
	admin.POST("/update_attendance", h.Attendance.UpdateAttendance)
	admin.POST("/delete_student", h.Attendance.DeleteStudent)

	student := api.Group("/student")
	student.POST("/mark_attendance", h.Attendance.MarkAttendance)
	student.GET("/stats/:student_id", h.Attendance.StudentStats)

	if h.Reports != nil {
		admin.POST("/reports", h.Reports.GenerateReport)
		admin.GET("/reports/:id", h.Reports.ReportStatus)
		api.GET("/reports/download/:token", h.Reports.DownloadReport)
	}
}
