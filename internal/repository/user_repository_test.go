package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestUserRepositoryCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id, name, username, password_hash, role, rollno, class_id, semester, created_at)")).
		WithArgs(sqlmock.AnyArg(), "Asha", "asha", "hash", models.RoleStudent, "R1", "CS-A", "3", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{Name: "Asha", Username: "asha", PasswordHash: "hash", Role: models.RoleStudent,
		RollNo: strPtr("R1"), ClassID: strPtr("CS-A"), Semester: strPtr("3")}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUserRepositoryFindByUsernameNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsername(context.Background(), "ghost")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserRepositoryFindByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "username", "password_hash", "role", "rollno", "class_id", "semester", "created_at"}).
		AddRow("u-1", "Admin", "admin", "hash", "admin", nil, nil, nil, fixedNow)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).WithArgs("u-1").WillReturnRows(rows)

	user, err := repo.FindByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Nil(t, user.RollNo)
}

func TestUserRepositoryExists(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)")).
		WithArgs("asha").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE rollno = $1)")).
		WithArgs("R9").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	taken, err := repo.ExistsByUsername(context.Background(), "asha")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.ExistsByRollNo(context.Background(), "R9")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserRepositoryUpdatePasswordUnknown(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash = $2 WHERE id = $1")).
		WithArgs("missing", "hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), "missing", "hash")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserRepositoryDeleteStudent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance WHERE student_id = $1")).
		WithArgs("s-2").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1 AND role = 'student'")).
		WithArgs("s-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.DeleteStudent(context.Background(), "s-2")
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

func TestUserRepositoryDeleteStudentNotFoundRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance WHERE student_id = $1")).
		WithArgs("admin-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1 AND role = 'student'")).
		WithArgs("admin-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.DeleteStudent(context.Background(), "admin-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserRepositoryDeleteStudentExecFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.DeleteStudent(context.Background(), "s-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete student attendance")
}
