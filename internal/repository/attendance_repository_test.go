package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

const upsertPattern = `INSERT INTO attendance (id, student_id, session_token, status, marked_at)
VALUES ($1, $2, $3, 'Present', $4)
ON CONFLICT (student_id, session_token) DO UPDATE SET status = 'Present', marked_at = EXCLUDED.marked_at
WHERE attendance.status <> 'Present'
RETURNING id`

func expectSessionLookup(mock sqlmock.Sqlmock, token string) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE token = $1")).
		WithArgs(token).
		WillReturnRows(sessionRows().AddRow(token, "Algorithms", "CS101", "CS-A", fixedNow, nil))
}

func expectStudentLookup(mock sqlmock.Sqlmock, studentID string, exists bool) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND role = 'student')")).
		WithArgs(studentID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func TestAttendanceRepositoryMarkInsertsPresent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	expectSessionLookup(mock, "AB12CD34")
	expectStudentLookup(mock, "S1", true)
	mock.ExpectQuery(regexp.QuoteMeta(upsertPattern)).
		WithArgs(sqlmock.AnyArg(), "S1", "AB12CD34", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("rec-1"))
	mock.ExpectCommit()

	res, err := repo.Mark(context.Background(), "S1", "AB12CD34", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", res.RecordID)
	assert.False(t, res.AlreadyMarked)
	assert.Equal(t, "CS101", res.Session.ClassCode)
}

func TestAttendanceRepositoryMarkFlipsAbsent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAttendanceRepository(db)

	later := fixedNow.Add(time.Hour)
	mock.ExpectBegin()
	expectSessionLookup(mock, "AB12CD34")
	expectStudentLookup(mock, "S1", true)
	// The conflicting Absent row passes the WHERE guard and comes back updated.
	mock.ExpectQuery(regexp.QuoteMeta(upsertPattern)).
		WithArgs(sqlmock.AnyArg(), "S1", "AB12CD34", later).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("rec-absent"))
	mock.ExpectCommit()

	res, err := repo.Mark(context.Background(), "S1", "AB12CD34", later)
	require.NoError(t, err)
	assert.False(t, res.AlreadyMarked)
	assert.Equal(t, "rec-absent", res.RecordID)
}

func TestAttendanceRepositoryMarkAlreadyPresent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	expectSessionLookup(mock, "AB12CD34")
	expectStudentLookup(mock, "S1", true)
	mock.ExpectQuery(regexp.QuoteMeta(upsertPattern)).
		WithArgs(sqlmock.AnyArg(), "S1", "AB12CD34", fixedNow.Add(time.Minute)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM attendance WHERE student_id = $1 AND session_token = $2")).
		WithArgs("S1", "AB12CD34").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("rec-1"))
	mock.ExpectCommit()

	res, err := repo.Mark(context.Background(), "S1", "AB12CD34", fixedNow.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, res.AlreadyMarked)
	assert.Equal(t, "rec-1", res.RecordID)
}

func TestAttendanceRepositoryMarkUnknownSession(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE token = $1")).
		WithArgs("NOPE0000").
		WillReturnRows(sessionRows())
	mock.ExpectRollback()

	_, err := repo.Mark(context.Background(), "S1", "NOPE0000", fixedNow)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAttendanceRepositoryMarkUnknownStudent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	expectSessionLookup(mock, "AB12CD34")
	expectStudentLookup(mock, "ghost", false)
	mock.ExpectRollback()

	_, err := repo.Mark(context.Background(), "ghost", "AB12CD34", fixedNow)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestAttendanceRepositoryUpdateStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance SET status = $2 WHERE id = $1")).
		WithArgs("rec-1", models.AttendanceStatusAbsent).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance SET status = $2 WHERE id = $1")).
		WithArgs("missing", models.AttendanceStatusPresent).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateStatus(context.Background(), "rec-1", models.AttendanceStatusAbsent))
	require.ErrorIs(t, repo.UpdateStatus(context.Background(), "missing", models.AttendanceStatusPresent), sql.ErrNoRows)
}

func TestAttendanceRepositoryRecords(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "student_name", "roll_no", "session_token", "class_name", "class_code", "status", "marked_at"}).
		AddRow("rec-2", "S2", "Ben", "R2", "AB12CD34", "Algorithms", "CS101", "Present", fixedNow.Add(time.Minute)).
		AddRow("rec-1", "S1", "Asha", nil, "AB12CD34", "Algorithms", "CS101", "Absent", fixedNow)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.class_id = $1\nORDER BY a.marked_at DESC")).
		WithArgs("CS-A").
		WillReturnRows(rows)

	records, err := repo.Records(context.Background(), models.SessionWindow{ClassID: "CS-A"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "rec-2", records[0].ID)
	assert.Nil(t, records[1].RollNo)
	assert.Equal(t, models.AttendanceStatusAbsent, records[1].Status)
}

func TestAttendanceRepositoryRecordsEmpty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN sessions s ON s.token = a.session_token\nORDER BY a.marked_at DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	records, err := repo.Records(context.Background(), models.SessionWindow{})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
