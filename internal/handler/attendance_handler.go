package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/middleware"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
	"github.com/noah-isme/qr-attendance-api/pkg/response"
)

type attendanceService interface {
	MarkAttendance(ctx context.Context, req dto.MarkAttendanceRequest) (*dto.MarkAttendanceResponse, error)
	UpdateAttendance(ctx context.Context, req dto.UpdateAttendanceRequest) (*dto.MessageResponse, error)
	DeleteStudent(ctx context.Context, req dto.DeleteStudentRequest) (*dto.DeleteStudentResponse, error)
}

type statsService interface {
	StudentStats(ctx context.Context, studentID string) (*dto.StudentStatsResponse, bool, error)
	ClassRoster(ctx context.Context, query dto.RosterQuery) (*dto.RosterResponse, bool, error)
}

// AttendanceHandler serves marking, correction and statistics endpoints.
type AttendanceHandler struct {
	attendance attendanceService
	stats      statsService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(attendance attendanceService, stats statsService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, stats: stats}
}

// MarkAttendance godoc
// @Summary Mark attendance
// @Description Marks the student Present for the session behind a scanned QR token
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.MarkAttendanceRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/mark_attendance [post]
func (h *AttendanceHandler) MarkAttendance(c *gin.Context) {
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Missing required fields."))
		return
	}
	res, err := h.attendance.MarkAttendance(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// StudentStats godoc
// @Summary Student attendance statistics
// @Tags Attendance
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/stats/{student_id} [get]
func (h *AttendanceHandler) StudentStats(c *gin.Context) {
	res, hit, err := h.stats.StudentStats(c.Request.Context(), c.Param("student_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

const msgInvalidRosterFilter = "Invalid filter. Send class_id and date (YYYY-MM-DD) as JSON or query parameters."

// Roster godoc
// @Summary Class attendance roster
// @Description Per-student statistics, attendance records and the current session token
// @Tags Attendance
// @Accept json
// @Produce json
// @Param class_id query string false "Class ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/attendance [get]
// @Router /admin/attendance [post]
func (h *AttendanceHandler) Roster(c *gin.Context) {
	var query dto.RosterQuery
	var err error
	if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
		err = c.ShouldBindJSON(&query)
	} else {
		err = c.ShouldBindQuery(&query)
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msgInvalidRosterFilter))
		return
	}
	res, hit, err := h.stats.ClassRoster(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}

// UpdateAttendance godoc
// @Summary Correct an attendance record
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.UpdateAttendanceRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/update_attendance [post]
func (h *AttendanceHandler) UpdateAttendance(c *gin.Context) {
	var req dto.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid record ID or status."))
		return
	}
	res, err := h.attendance.UpdateAttendance(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// DeleteStudent godoc
// @Summary Delete a student
// @Description Removes the student and all of their attendance records
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.DeleteStudentRequest true "Delete payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/delete_student [post]
func (h *AttendanceHandler) DeleteStudent(c *gin.Context) {
	var req dto.DeleteStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Missing required fields."))
		return
	}
	res, err := h.attendance.DeleteStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}
