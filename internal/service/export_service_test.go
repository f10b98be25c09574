package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/pkg/storage"
)

type rosterStub struct {
	resp  *dto.RosterResponse
	err   error
	query dto.RosterQuery
}

func (r *rosterStub) ClassRoster(ctx context.Context, query dto.RosterQuery) (*dto.RosterResponse, bool, error) {
	r.query = query
	if r.err != nil {
		return nil, false, r.err
	}
	return r.resp, false, nil
}

func sampleRoster() *dto.RosterResponse {
	return &dto.RosterResponse{
		Stats: []dto.RosterStat{
			{StudentID: "s1", Name: "Asha, K", RollNo: strPtr("R1"), Attended: 3, Total: 4, Missed: 1, Percentage: 75},
			{StudentID: "s2", Name: "Ben", Total: 4, Missed: 4},
		},
		Records: []models.AttendanceRecord{{
			ID: "rec-1", StudentName: "Asha, K", RollNo: strPtr("R1"), ClassCode: "CS101", ClassName: "Data Structures",
			Status: models.AttendanceStatusPresent, MarkedAt: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
		}},
	}
}

func newExportServiceForTest(t *testing.T) (*ExportService, *rosterStub) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	roster := &rosterStub{resp: sampleRoster()}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(roster, files, signer, ExportConfig{APIPrefix: "/api/", ResultTTL: time.Hour}, zap.NewNop(), nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC) }
	return svc, roster
}

func readExport(t *testing.T, svc *ExportService, relPath string) string {
	t.Helper()
	f, err := svc.Open(relPath)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return string(data)
}

func TestExportGenerateStatsCSV(t *testing.T) {
	svc, roster := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeStats,
		Params: models.ReportJobParams{ClassID: "CS-A", Date: "2024-03-05", Format: models.ReportFormatCSV},
	}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, dto.RosterQuery{ClassID: "CS-A", Date: "2024-03-05"}, roster.query)
	assert.Equal(t, "attendance_stats_CS-A_2024-03-05_20240305_100000.csv", result.RelativePath)
	assert.True(t, strings.HasPrefix(result.URL, "/api/reports/download/"))
	assert.True(t, strings.HasSuffix(result.URL, result.Token))

	content := readExport(t, svc, result.RelativePath)
	assert.Equal(t, "Roll No,Name,Attended,Total,Missed,Percentage\nR1,\"Asha, K\",3,4,1,75.0\n,Ben,0,4,4,0.0\n", content)

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, result.RelativePath, relPath)
}

func TestExportGenerateRecordsPDF(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ReportJob{ID: "job-2", Type: models.ReportTypeRecords, Params: models.ReportJobParams{Format: models.ReportFormatPDF}}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "attendance_records_all_all_20240305_100000.pdf", result.RelativePath)
	assert.True(t, strings.HasPrefix(readExport(t, svc, result.RelativePath), "%PDF"))

	require.NoError(t, svc.Delete(result.RelativePath))
	_, err = svc.Open(result.RelativePath)
	assert.Error(t, err)
}

func TestExportGenerateErrors(t *testing.T) {
	svc, roster := newExportServiceForTest(t)

	_, err := svc.Generate(context.Background(), &models.ReportJob{ID: "j", Type: "grades", Params: models.ReportJobParams{Format: models.ReportFormatCSV}})
	assert.Error(t, err)

	_, err = svc.Generate(context.Background(), &models.ReportJob{ID: "j", Type: models.ReportTypeStats, Params: models.ReportJobParams{Format: "xlsx"}})
	assert.Error(t, err)

	roster.err = errors.New("db down")
	_, err = svc.Generate(context.Background(), &models.ReportJob{ID: "j", Type: models.ReportTypeStats, Params: models.ReportJobParams{Format: models.ReportFormatCSV}})
	assert.Error(t, err)

	_, err = svc.Generate(context.Background(), nil)
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "all", sanitizeFilename(""))
	assert.Equal(t, "---etc-passwd", sanitizeFilename("../etc/passwd"))
	assert.Equal(t, "CS_A-1", sanitizeFilename("CS A:1"))
}
