package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/pkg/export"
	"github.com/noah-isme/qr-attendance-api/pkg/storage"
)

type rosterSource interface {
	ClassRoster(ctx context.Context, query dto.RosterQuery) (*dto.RosterResponse, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders class rosters to files and signs their download links.
type ExportService struct {
	roster  rosterSource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(roster rosterSource, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		roster:  roster,
		storage: files,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Generate renders the job's roster view and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("report rendered", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("bytes", len(payload)))

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          s.DownloadURL(token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// DownloadURL builds the public path serving token.
func (s *ExportService) DownloadURL(token string) string {
	return strings.TrimRight(s.cfg.APIPrefix, "/") + "/reports/download/" + token
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, or the configured ResultTTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("attendance_%s_%s_%s_%s.%s",
		job.Type,
		sanitizeFilename(job.Params.ClassID),
		sanitizeFilename(job.Params.Date),
		timestamp,
		job.Params.Format,
	)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", ".", "-")
	result := replacer.Replace(raw)
	if len(result) > 60 {
		return result[:60]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	roster, _, err := s.roster.ClassRoster(ctx, dto.RosterQuery{ClassID: job.Params.ClassID, Date: job.Params.Date})
	if err != nil {
		return export.Dataset{}, "", err
	}
	title := "Attendance " + reportScope(job.Params)

	switch job.Type {
	case models.ReportTypeStats, "":
		data := export.Dataset{Headers: []string{"Roll No", "Name", "Attended", "Total", "Missed", "Percentage"}}
		for _, row := range roster.Stats {
			data.AddRow(
				deref(row.RollNo),
				row.Name,
				strconv.Itoa(row.Attended),
				strconv.Itoa(row.Total),
				strconv.Itoa(row.Missed),
				strconv.FormatFloat(row.Percentage, 'f', 1, 64),
			)
		}
		return data, title + " summary", nil
	case models.ReportTypeRecords:
		data := export.Dataset{Headers: []string{"Record ID", "Roll No", "Student", "Class Code", "Class Name", "Status", "Timestamp"}}
		for _, rec := range roster.Records {
			data.AddRow(
				rec.ID,
				deref(rec.RollNo),
				rec.StudentName,
				rec.ClassCode,
				rec.ClassName,
				string(rec.Status),
				rec.MarkedAt.Format(time.RFC3339),
			)
		}
		return data, title + " records", nil
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func reportScope(params models.ReportJobParams) string {
	scope := "all classes"
	if params.ClassID != "" {
		scope = "class " + params.ClassID
	}
	if params.Date != "" {
		scope += " on " + params.Date
	}
	return scope
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
