package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/pkg/database"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
	"github.com/noah-isme/qr-attendance-api/pkg/qrcode"
)

const (
	tokenAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenLength      = 8
	maxTokenAttempts = 5

	msgMissingClass = "Missing class name or code."
)

type sessionRepository interface {
	Create(ctx context.Context, session *models.Session, purgePrior bool) error
	FindByToken(ctx context.Context, token string) (*models.Session, error)
	List(ctx context.Context, window models.SessionWindow) ([]models.Session, error)
	LatestToken(ctx context.Context, window models.SessionWindow) (string, error)
}

// SessionConfig controls session creation.
type SessionConfig struct {
	PurgeOnCreate bool
	Location      *time.Location
}

// SessionService creates class sessions and resolves their QR tokens.
type SessionService struct {
	repo      sessionRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SessionConfig

	now      func() time.Time
	newToken func() (string, error)
}

// NewSessionService constructs a SessionService.
func NewSessionService(repo sessionRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg SessionConfig) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &SessionService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: newValidator(validate),
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		newToken:  generateToken,
	}
}

// CreateSession opens a class session identified by a fresh token.
func (s *SessionService) CreateSession(ctx context.Context, req dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	req.ClassName = strings.TrimSpace(req.ClassName)
	req.ClassCode = strings.TrimSpace(req.ClassCode)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msgMissingClass)
	}

	createdAt, err := s.sessionTime(strings.TrimSpace(req.Date))
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ClassName: req.ClassName,
		ClassCode: req.ClassCode,
		ClassID:   strings.TrimSpace(req.ClassID),
		CreatedAt: createdAt,
		CreatedBy: trimmed(&req.CreatedBy),
	}

	for attempt := 1; ; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return nil, appErrors.Internal(err, "Internal error creating session.")
		}
		session.Token = token
		err = s.repo.Create(ctx, session, s.cfg.PurgeOnCreate)
		if err == nil {
			break
		}
		if database.IsUniqueViolation(err) && attempt < maxTokenAttempts {
			s.logger.Warn("session token collision", zap.Int("attempt", attempt))
			continue
		}
		return nil, appErrors.Internal(err, "Internal error creating session.")
	}

	s.metrics.RecordSessionCreated()
	_ = s.cache.Invalidate(ctx, StatsCachePattern)
	s.logger.Info("session created",
		zap.String("class_code", session.ClassCode),
		zap.String("class_id", session.ClassID),
		zap.Bool("purged_prior", s.cfg.PurgeOnCreate),
	)

	return &dto.CreateSessionResponse{
		QRToken:   session.Token,
		ClassName: session.ClassName,
		ClassCode: session.ClassCode,
		ClassID:   session.ClassID,
		CreatedAt: session.CreatedAt,
		Message:   fmt.Sprintf("Session for %s created.", session.ClassCode),
	}, nil
}

// ListSessions returns sessions newest first plus the current token of the class.
func (s *SessionService) ListSessions(ctx context.Context, query dto.SessionQuery) (*dto.SessionListResponse, error) {
	window, err := buildWindow(query.ClassID, query.Date, s.cfg.Location)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repo.List(ctx, window)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list sessions")
	}
	current, err := s.CurrentToken(ctx, window.ClassID)
	if err != nil {
		return nil, err
	}
	return &dto.SessionListResponse{Sessions: sessions, CurrentQRToken: current}, nil
}

// CurrentToken returns the token of the most recent session in scope, or nil.
func (s *SessionService) CurrentToken(ctx context.Context, classID string) (*string, error) {
	token, err := s.repo.LatestToken(ctx, models.SessionWindow{ClassID: strings.TrimSpace(classID)})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Internal(err, "failed to load current session")
	}
	return &token, nil
}

// RenderQR encodes an existing session token as a PNG.
func (s *SessionService) RenderQR(ctx context.Context, token string, size int) ([]byte, error) {
	token = models.NormalizeToken(token)
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, msgSessionInvalid)
	}
	session, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, msgSessionInvalid)
		}
		return nil, appErrors.Internal(err, "failed to load session")
	}
	png, err := qrcode.Encode(session.Token, size)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render QR code")
	}
	return png, nil
}

// sessionTime combines the optional calendar date with the current time of day.
func (s *SessionService) sessionTime(date string) (time.Time, error) {
	now := s.now().In(s.cfg.Location)
	if date == "" {
		return now, nil
	}
	day, err := models.ParseDate(date, s.cfg.Location)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msgInvalidDate)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), s.cfg.Location), nil
}

func generateToken() (string, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))
	buf := make([]byte, tokenLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate session token: %w", err)
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}
