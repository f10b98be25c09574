package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements is applied in order; every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('admin', 'student')),
	rollno TEXT UNIQUE,
	class_id TEXT,
	semester TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	class_name TEXT NOT NULL,
	class_code TEXT NOT NULL,
	class_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_by TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_class_created ON sessions (class_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS attendance (
	id TEXT PRIMARY KEY,
	student_id TEXT NOT NULL REFERENCES users(id),
	session_token TEXT NOT NULL REFERENCES sessions(token) ON DELETE CASCADE,
	status TEXT NOT NULL CHECK (status IN ('Present', 'Absent')),
	marked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT uq_attendance_student_session UNIQUE (student_id, session_token)
)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_session ON attendance (session_token)`,
	`CREATE TABLE IF NOT EXISTS report_jobs (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	params JSONB NOT NULL DEFAULT '{}'::jsonb,
	status TEXT NOT NULL,
	progress INTEGER NOT NULL DEFAULT 0,
	result_url TEXT,
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	finished_at TIMESTAMPTZ,
	error_message TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_report_jobs_status ON report_jobs (status, created_at)`,
}

// EnsureSchema creates the tables and indexes used by the service when they are missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
