package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

const sessionColumns = `token, class_name, class_code, class_id, created_at, created_by`

// SessionRepository persists class sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts the session. When purgePrior is set, earlier sessions of the
// same class and their attendance rows are removed in the same transaction.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session, purgePrior bool) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create session: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if purgePrior {
		const purgeAttendance = `DELETE FROM attendance WHERE session_token IN (SELECT token FROM sessions WHERE class_id = $1)`
		if _, err = tx.ExecContext(ctx, purgeAttendance, session.ClassID); err != nil {
			return fmt.Errorf("purge class attendance: %w", err)
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE class_id = $1`, session.ClassID); err != nil {
			return fmt.Errorf("purge class sessions: %w", err)
		}
	}

	const insert = `INSERT INTO sessions (token, class_name, class_code, class_id, created_at, created_by)
VALUES (:token, :class_name, :class_code, :class_id, :created_at, :created_by)`
	if _, err = tx.NamedExecContext(ctx, insert, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create session: %w", err)
	}
	return nil
}

// FindByToken returns the session for an already normalised token.
func (r *SessionRepository) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE token = $1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// List returns the sessions inside the window, newest first.
func (r *SessionRepository) List(ctx context.Context, window models.SessionWindow) ([]models.Session, error) {
	conds, args := sessionWindowConditions(window, "s", nil)
	query := `SELECT s.token, s.class_name, s.class_code, s.class_id, s.created_at, s.created_by FROM sessions s`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY s.created_at DESC"

	sessions := make([]models.Session, 0)
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// LatestToken returns the token of the most recent session in the window, or
// sql.ErrNoRows when there is none.
func (r *SessionRepository) LatestToken(ctx context.Context, window models.SessionWindow) (string, error) {
	conds, args := sessionWindowConditions(window, "s", nil)
	query := `SELECT s.token FROM sessions s`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY s.created_at DESC LIMIT 1"

	var token string
	if err := r.db.GetContext(ctx, &token, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("latest session token: %w", err)
	}
	return token, nil
}
