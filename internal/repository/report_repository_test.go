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

func TestReportRepositoryCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_jobs")).
		WithArgs(sqlmock.AnyArg(), models.ReportTypeStats, sqlmock.AnyArg(), models.ReportStatusQueued, 0, nil, "admin-1", sqlmock.AnyArg(), nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	job := &models.ReportJob{Type: models.ReportTypeStats, Params: models.ReportJobParams{Format: models.ReportFormatCSV}, CreatedBy: "admin-1"}
	require.NoError(t, repo.Create(context.Background(), job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
}

func TestReportRepositoryGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM report_jobs WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReportRepositoryGetByIDScansParams(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"id", "type", "params", "status", "progress", "result_url", "created_by", "created_at", "finished_at", "error_message"}).
		AddRow("job-1", "records", []byte(`{"class_id":"CS-A","format":"pdf"}`), "FINISHED", 100, "/reports/download/tok", "", fixedNow, fixedNow, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_jobs WHERE id = $1")).WithArgs("job-1").WillReturnRows(rows)

	job, err := repo.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "CS-A", job.Params.ClassID)
	assert.Equal(t, models.ReportFormatPDF, job.Params.Format)
	require.NotNil(t, job.ResultURL)
}

func TestReportRepositoryUpdate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReportRepository(db)

	status := models.ReportStatusFinished
	progress := 100
	finished := fixedNow
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET status = $1, progress = $2, finished_at = $3 WHERE id = $4")).
		WithArgs(status, progress, finished, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateReportJobParams{Status: &status, Progress: &progress, FinishedAt: &finished})
	require.NoError(t, err)
}

func TestReportRepositoryUpdateNoop(t *testing.T) {
	db, _ := newMock(t)
	repo := NewReportRepository(db)
	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateReportJobParams{}))
}

func TestReportRepositoryListFinishedBefore(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReportRepository(db)

	cutoff := fixedNow.Add(-24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 AND result_url IS NOT NULL")).
		WithArgs(models.ReportStatusFinished, cutoff, 100).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	jobs, err := repo.ListFinishedBefore(context.Background(), cutoff, 0)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
