package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/pkg/database"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

const (
	msgUsernameTaken   = "Username already exists."
	msgRollNoTaken     = "Roll Number already registered."
	msgDuplicateUser   = "Username or Roll Number already exists."
	msgInvalidLogin    = "Invalid username or password."
	msgInvalidRole     = "Invalid role. Use admin or student."
	msgPasswordTooLong = "Password must be at most 72 bytes."
)

type authUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByRollNo(ctx context.Context, rollNo string) (bool, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// AuthService registers users and verifies logins.
type AuthService struct {
	repo      authUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	cost      int
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{repo: repo, validator: newValidator(validate), logger: logger, cost: bcrypt.DefaultCost}
}

// Register creates an admin or student account.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, msgInvalidRole)
	}
	role, _ := models.ParseRole(req.Role)

	user := &models.User{
		Name:     req.Name,
		Username: req.Username,
		Role:     role,
	}
	if user.Name == "" {
		user.Name = user.Username
	}
	if role == models.RoleStudent {
		user.RollNo = trimmed(req.RollNo)
		user.ClassID = trimmed(req.ClassID)
		user.Semester = trimmed(req.Semester)
	}

	exists, err := s.repo.ExistsByUsername(ctx, user.Username)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check username")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, msgUsernameTaken)
	}
	if user.RollNo != nil {
		exists, err = s.repo.ExistsByRollNo(ctx, *user.RollNo)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to check roll number")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, msgRollNoTaken)
		}
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.repo.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflictMessage(err))
		}
		return nil, appErrors.Internal(err, "An internal error occurred during registration.")
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &dto.RegisterResponse{
		UserID:  user.ID,
		Role:    string(user.Role),
		Message: fmt.Sprintf("User %s registered successfully.", user.Username),
	}, nil
}

// Login verifies the password against the stored bcrypt hash.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, msgMissingFields)
	}

	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, msgInvalidLogin)
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, msgInvalidLogin)
	}

	return &dto.LoginResponse{
		UserID:   user.ID,
		Name:     user.Name,
		Username: user.Username,
		Role:     string(user.Role),
		RollNo:   user.RollNo,
		ClassID:  user.ClassID,
		Semester: user.Semester,
		Message:  "Login successful!",
	}, nil
}

// ResetPassword replaces a user's password hash.
func (s *AuthService) ResetPassword(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return appErrors.Clone(appErrors.ErrValidation, msgMissingFields)
	}
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "User not found.")
		}
		return appErrors.Internal(err, "failed to fetch user")
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "User not found.")
		}
		return appErrors.Internal(err, "failed to update password")
	}
	s.logger.Info("password reset", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msgPasswordTooLong)
		}
		return "", appErrors.Internal(err, "failed to hash password")
	}
	return string(hash), nil
}

func conflictMessage(err error) string {
	constraint := database.ConstraintName(err)
	switch {
	case strings.Contains(constraint, "username"):
		return msgUsernameTaken
	case strings.Contains(constraint, "rollno"):
		return msgRollNoTaken
	default:
		return msgDuplicateUser
	}
}
