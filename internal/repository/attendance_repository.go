package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

var (
	// ErrSessionNotFound is returned by Mark when the token matches no session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStudentNotFound is returned by Mark when the id is not a student.
	ErrStudentNotFound = errors.New("student not found")
)

// AttendanceRepository persists attendance rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Mark records the student as Present for the session in a single transaction.
// A row that is already Present is left untouched and reported as AlreadyMarked;
// an Absent row flips to Present with a fresh timestamp. The unique
// (student_id, session_token) constraint serialises concurrent marks.
func (r *AttendanceRepository) Mark(ctx context.Context, studentID, token string, markedAt time.Time) (result *models.MarkResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin mark attendance: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var session models.Session
	const sessionQuery = `SELECT ` + sessionColumns + ` FROM sessions WHERE token = $1`
	if err = tx.GetContext(ctx, &session, sessionQuery, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrSessionNotFound
			return nil, err
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	var studentExists bool
	const studentQuery = `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND role = 'student')`
	if err = tx.GetContext(ctx, &studentExists, studentQuery, studentID); err != nil {
		return nil, fmt.Errorf("lookup student: %w", err)
	}
	if !studentExists {
		err = ErrStudentNotFound
		return nil, err
	}

	result = &models.MarkResult{Session: session}
	const upsert = `INSERT INTO attendance (id, student_id, session_token, status, marked_at)
VALUES ($1, $2, $3, 'Present', $4)
ON CONFLICT (student_id, session_token) DO UPDATE SET status = 'Present', marked_at = EXCLUDED.marked_at
WHERE attendance.status <> 'Present'
RETURNING id`
	err = tx.GetContext(ctx, &result.RecordID, upsert, uuid.NewString(), studentID, token, markedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		result.AlreadyMarked = true
		const existing = `SELECT id FROM attendance WHERE student_id = $1 AND session_token = $2`
		if err = tx.GetContext(ctx, &result.RecordID, existing, studentID, token); err != nil {
			return nil, fmt.Errorf("load existing attendance: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mark attendance: %w", err)
	}
	return result, nil
}

// UpdateStatus overwrites only the status column. It returns sql.ErrNoRows for
// unknown record ids.
func (r *AttendanceRepository) UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE attendance SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update attendance status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update attendance status rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID returns one attendance row.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	const query = `SELECT id, student_id, session_token, status, marked_at FROM attendance WHERE id = $1`
	var row models.Attendance
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &row, nil
}

// Records lists attendance joined with student and session details for sessions
// inside the window, most recent mark first.
func (r *AttendanceRepository) Records(ctx context.Context, window models.SessionWindow) ([]models.AttendanceRecord, error) {
	conds, args := sessionWindowConditions(window, "s", nil)
	query := `SELECT a.id, a.student_id, u.name AS student_name, u.rollno AS roll_no, a.session_token,
	s.class_name, s.class_code, a.status, a.marked_at
FROM attendance a
JOIN users u ON u.id = a.student_id
JOIN sessions s ON s.token = a.session_token`
	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	query += "\nORDER BY a.marked_at DESC"

	records := make([]models.AttendanceRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}
