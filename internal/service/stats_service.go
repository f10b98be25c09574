package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

const msgMissingClassID = "Missing class ID."

type statsRepository interface {
	CountSessions(ctx context.Context, window models.SessionWindow) (int, error)
	CountPresent(ctx context.Context, studentID string, window models.SessionWindow) (int, error)
	StudentCounts(ctx context.Context, window models.SessionWindow) ([]models.StudentAttendanceCount, error)
}

type attendanceRecordReader interface {
	Records(ctx context.Context, window models.SessionWindow) ([]models.AttendanceRecord, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type latestSessionFinder interface {
	LatestToken(ctx context.Context, window models.SessionWindow) (string, error)
}

// StatsConfig tunes statistics queries.
type StatsConfig struct {
	CacheTTL       time.Duration
	RequireClassID bool
	Location       *time.Location
}

// StatsService reconciles sessions against attendance for students and classes.
type StatsService struct {
	stats    statsRepository
	records  attendanceRecordReader
	users    studentFinder
	sessions latestSessionFinder
	cache    *CacheService
	logger   *zap.Logger
	cfg      StatsConfig
}

// NewStatsService constructs a StatsService.
func NewStatsService(stats statsRepository, records attendanceRecordReader, users studentFinder, sessions latestSessionFinder, cache *CacheService, logger *zap.Logger, cfg StatsConfig) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &StatsService{stats: stats, records: records, users: users, sessions: sessions, cache: cache, logger: logger, cfg: cfg}
}

// StudentStats computes attended/total over the sessions of the student's class,
// or over every session when the student has no class. The boolean reports a
// cache hit.
func (s *StatsService) StudentStats(ctx context.Context, studentID string) (*dto.StudentStatsResponse, bool, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, msgMissingFields)
	}

	key := statsKey("student", studentID)
	var cached dto.StudentStatsResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	user, err := s.users.FindByID(ctx, studentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, appErrors.Internal(err, "Internal error fetching stats.")
	}
	if err != nil || !user.IsStudent() {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, msgStudentMissing)
	}

	window := models.SessionWindow{ClassID: user.ClassScope()}
	total, err := s.stats.CountSessions(ctx, window)
	if err != nil {
		return nil, false, appErrors.Internal(err, "Internal error fetching stats.")
	}
	attended, err := s.stats.CountPresent(ctx, studentID, window)
	if err != nil {
		return nil, false, appErrors.Internal(err, "Internal error fetching stats.")
	}

	computed := models.Compute(attended, total)
	resp := &dto.StudentStatsResponse{
		StudentID:       studentID,
		AttendanceStats: computed,
		TotalClasses:    computed.Total,
	}
	_ = s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	return resp, false, nil
}

// ClassRoster builds the admin view: per-student stats, attendance records and
// the current session token. Each student's line is computed over their own
// class's sessions, matching StudentStats.
func (s *StatsService) ClassRoster(ctx context.Context, query dto.RosterQuery) (*dto.RosterResponse, bool, error) {
	query.ClassID = strings.TrimSpace(query.ClassID)
	query.Date = strings.TrimSpace(query.Date)
	if s.cfg.RequireClassID && query.ClassID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, msgMissingClassID)
	}
	window, err := buildWindow(query.ClassID, query.Date, s.cfg.Location)
	if err != nil {
		return nil, false, err
	}

	key := statsKey("roster", orAll(query.ClassID), orAll(query.Date))
	var cached dto.RosterResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	counts, err := s.stats.StudentCounts(ctx, window)
	if err != nil {
		return nil, false, appErrors.Internal(err, "Internal error fetching admin data.")
	}
	records, err := s.records.Records(ctx, window)
	if err != nil {
		return nil, false, appErrors.Internal(err, "Internal error fetching admin data.")
	}

	resp := &dto.RosterResponse{
		Records: records,
		Stats:   make([]dto.RosterStat, 0, len(counts)),
	}
	if resp.Records == nil {
		resp.Records = []models.AttendanceRecord{}
	}
	for _, c := range counts {
		computed := models.Compute(c.Attended, c.Total)
		resp.Stats = append(resp.Stats, dto.RosterStat{
			StudentID:  c.StudentID,
			Name:       c.Name,
			RollNo:     c.RollNo,
			Attended:   computed.Attended,
			Total:      computed.Total,
			Missed:     computed.Missed,
			Percentage: computed.Percentage,
		})
	}

	token, err := s.sessions.LatestToken(ctx, models.SessionWindow{ClassID: query.ClassID})
	switch {
	case err == nil:
		resp.CurrentQRToken = &token
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, appErrors.Internal(err, "Internal error fetching admin data.")
	}

	_ = s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	return resp, false, nil
}

// buildWindow turns optional class and YYYY-MM-DD filters into a session window.
func buildWindow(classID, date string, loc *time.Location) (models.SessionWindow, error) {
	classID = strings.TrimSpace(classID)
	date = strings.TrimSpace(date)
	if date == "" {
		return models.SessionWindow{ClassID: classID}, nil
	}
	day, err := models.ParseDate(date, loc)
	if err != nil {
		return models.SessionWindow{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msgInvalidDate)
	}
	return models.DayWindow(classID, day, loc), nil
}

func orAll(v string) string {
	if v == "" {
		return "all"
	}
	return v
}
