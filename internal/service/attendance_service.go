package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

const (
	msgInvalidRecord  = "Invalid record ID or status."
	msgRecordNotFound = "Attendance record not found."
)

type attendanceRepository interface {
	Mark(ctx context.Context, studentID, token string, markedAt time.Time) (*models.MarkResult, error)
	UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus) error
}

type studentRemover interface {
	DeleteStudent(ctx context.Context, id string) (int64, error)
}

// AttendanceService marks, corrects and purges attendance.
type AttendanceService struct {
	repo      attendanceRepository
	students  studentRemover
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, students studentRemover, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      repo,
		students:  students,
		cache:     cache,
		metrics:   metrics,
		validator: newValidator(validate),
		logger:    logger,
		now:       time.Now,
	}
}

// MarkAttendance records the student as Present for the scanned session.
func (s *AttendanceService) MarkAttendance(ctx context.Context, req dto.MarkAttendanceRequest) (*dto.MarkAttendanceResponse, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.QRToken = models.NormalizeToken(req.QRToken)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, msgMissingFields)
	}

	result, err := s.repo.Mark(ctx, req.StudentID, req.QRToken, s.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			s.metrics.RecordMark(MarkOutcomeInvalidToken)
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, msgSessionInvalid)
		case errors.Is(err, repository.ErrStudentNotFound):
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, msgStudentMissing)
		default:
			return nil, appErrors.Internal(err, "An internal error occurred while marking attendance.")
		}
	}

	resp := &dto.MarkAttendanceResponse{
		Status:        models.AttendanceStatusPresent,
		AlreadyMarked: result.AlreadyMarked,
		RecordID:      result.RecordID,
		ClassName:     result.Session.ClassName,
		ClassCode:     result.Session.ClassCode,
	}
	if result.AlreadyMarked {
		s.metrics.RecordMark(MarkOutcomeAlreadyMarked)
		resp.Message = fmt.Sprintf("You are already marked Present for %s.", result.Session.ClassCode)
		return resp, nil
	}

	s.metrics.RecordMark(MarkOutcomeMarked)
	_ = s.cache.Invalidate(ctx, StatsCachePattern)
	resp.Message = fmt.Sprintf("Attendance marked for %s: %s.", result.Session.ClassCode, result.Session.ClassName)
	return resp, nil
}

// UpdateAttendance overrides the status of one record. marked_at is preserved.
func (s *AttendanceService) UpdateAttendance(ctx context.Context, req dto.UpdateAttendanceRequest) (*dto.MessageResponse, error) {
	req.RecordID = strings.TrimSpace(req.RecordID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msgInvalidRecord)
	}
	status, _ := models.ParseAttendanceStatus(req.Status)

	if err := s.repo.UpdateStatus(ctx, req.RecordID, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, msgRecordNotFound)
		}
		return nil, appErrors.Internal(err, "Internal error updating attendance.")
	}
	_ = s.cache.Invalidate(ctx, StatsCachePattern)
	return &dto.MessageResponse{Message: fmt.Sprintf("Record %s updated to %s.", req.RecordID, status)}, nil
}

// DeleteStudent removes a student and all of their attendance rows.
func (s *AttendanceService) DeleteStudent(ctx context.Context, req dto.DeleteStudentRequest) (*dto.DeleteStudentResponse, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, msgMissingFields)
	}

	deleted, err := s.students.DeleteStudent(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, msgStudentMissing)
		}
		return nil, appErrors.Internal(err, "Internal error deleting student.")
	}
	_ = s.cache.Invalidate(ctx, StatsCachePattern)
	s.logger.Info("student deleted", zap.String("student_id", req.StudentID), zap.Int64("attendance_rows", deleted))
	return &dto.DeleteStudentResponse{
		StudentID:         req.StudentID,
		DeletedAttendance: deleted,
		Message:           fmt.Sprintf("Student %s deleted.", req.StudentID),
	}, nil
}
