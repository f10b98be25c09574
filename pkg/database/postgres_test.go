package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/qr-attendance-api/pkg/config"
)

func TestBuildDSNFromParts(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "secret", Name: "qr"}
	dsn := BuildDSN(cfg, "require")
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=qr sslmode=require", dsn)
}

func TestBuildDSNOverridesURLSSLMode(t *testing.T) {
	cfg := config.DatabaseConfig{URL: "postgres://app:secret@db:5432/qr?sslmode=verify-full&application_name=qr"}
	dsn := BuildDSN(cfg, "disable")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.NotContains(t, dsn, "verify-full")
	assert.Contains(t, dsn, "application_name=qr")
	assert.True(t, strings.HasPrefix(dsn, "postgres://app:secret@db:5432/qr?"))
}

func TestConnectFallsBackWithoutSSL(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	var attempts []string
	open := func(driver, dsn string) (*sqlx.DB, error) {
		attempts = append(attempts, dsn)
		if strings.Contains(dsn, "sslmode=require") {
			return nil, errors.New("server does not support SSL")
		}
		return sqlx.NewDb(mockDB, driver), nil
	}

	cfg := config.DatabaseConfig{Host: "db", Port: 5432, User: "app", Name: "qr", SSLFallback: true}
	db, err := connect(cfg, nil, open)
	require.NoError(t, err)
	require.NotNil(t, db)
	require.Len(t, attempts, 2)
	assert.Contains(t, attempts[1], "sslmode=disable")
}

func TestConnectWithoutFallbackFails(t *testing.T) {
	calls := 0
	open := func(driver, dsn string) (*sqlx.DB, error) {
		calls++
		return nil, errors.New("boom")
	}
	cfg := config.DatabaseConfig{Host: "db", SSLMode: "require"}
	_, err := connect(cfg, nil, open)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDriverName(t *testing.T) {
	assert.Equal(t, DriverPGX, driverName("PGX"))
	assert.Equal(t, DriverPostgres, driverName(""))
	assert.Equal(t, DriverPostgres, driverName("postgres"))
}

func TestUniqueViolationAcrossDrivers(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "users_username_key"}
	assert.True(t, IsUniqueViolation(pqErr))
	assert.Equal(t, "users_username_key", ConstraintName(pqErr))

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_rollno_key"}
	wrapped := errors.Join(errors.New("create user"), pgErr)
	assert.True(t, IsUniqueViolation(wrapped))
	assert.Equal(t, "users_rollno_key", ConstraintName(wrapped))

	assert.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestEnsureSchema(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	for range schemaStatements {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, EnsureSchema(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaStopsOnError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("permission denied"))
	err = EnsureSchema(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 1")
}
