package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

// StatsRepository runs the attendance aggregation queries. Session totals always
// come from the sessions table so meetings nobody attended still count.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// CountSessions counts sessions inside the window.
func (r *StatsRepository) CountSessions(ctx context.Context, window models.SessionWindow) (int, error) {
	conds, args := sessionWindowConditions(window, "s", nil)
	query := `SELECT COUNT(*) FROM sessions s`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return total, nil
}

// CountPresent counts the student's Present rows for sessions inside the window.
func (r *StatsRepository) CountPresent(ctx context.Context, studentID string, window models.SessionWindow) (int, error) {
	args := []interface{}{studentID}
	conds, args := sessionWindowConditions(window, "s", args)
	query := `SELECT COUNT(*) FROM attendance a JOIN sessions s ON s.token = a.session_token
WHERE a.student_id = $1 AND a.status = 'Present'`
	if len(conds) > 0 {
		query += " AND " + strings.Join(conds, " AND ")
	}
	var attended int
	if err := r.db.GetContext(ctx, &attended, query, args...); err != nil {
		return 0, fmt.Errorf("count present: %w", err)
	}
	return attended, nil
}

// studentScope limits a sessions alias to the student's own class; students
// without a class are counted against every session.
const studentScope = "(COALESCE(u.class_id, '') = '' OR %[1]s.class_id = u.class_id)"

// StudentCounts returns every student (restricted to the window's class when set)
// with their Present count and session total over the window, each scoped to the
// student's class. Rows are ordered by roll number then name.
func (r *StatsRepository) StudentCounts(ctx context.Context, window models.SessionWindow) ([]models.StudentAttendanceCount, error) {
	conds, args := sessionWindowConditions(window, "s", nil)
	// Same placeholders as conds; the arguments are shared.
	totalConds, _ := sessionWindowConditions(window, "st", nil)

	join := "LEFT JOIN sessions s ON s.token = a.session_token AND " + fmt.Sprintf(studentScope, "s")
	if len(conds) > 0 {
		join += " AND " + strings.Join(conds, " AND ")
	}
	total := "SELECT COUNT(*) FROM sessions st WHERE " + fmt.Sprintf(studentScope, "st")
	if len(totalConds) > 0 {
		total += " AND " + strings.Join(totalConds, " AND ")
	}
	where := "WHERE u.role = 'student'"
	if window.ClassID != "" {
		args = append(args, window.ClassID)
		where += fmt.Sprintf(" AND u.class_id = $%d", len(args))
	}
	query := `SELECT u.id AS student_id, u.name, u.rollno, u.class_id, COUNT(s.token) AS attended,
(` + total + `) AS total
FROM users u
LEFT JOIN attendance a ON a.student_id = u.id AND a.status = 'Present'
` + join + `
` + where + `
GROUP BY u.id, u.name, u.rollno, u.class_id
ORDER BY u.rollno ASC NULLS LAST, u.name ASC`

	rows := make([]models.StudentAttendanceCount, 0)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("student attendance counts: %w", err)
	}
	return rows, nil
}
