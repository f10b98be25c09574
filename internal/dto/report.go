package dto

import "github.com/noah-isme/qr-attendance-api/internal/models"

// ReportRequest is the payload for POST /admin/reports.
type ReportRequest struct {
	Type      models.ReportType   `json:"type"`
	Format    models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	ClassID   string              `json:"class_id"`
	Date      string              `json:"date"`
	CreatedBy string              `json:"created_by"`
}

// ReportJobResponse acknowledges a queued job.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse reports job progress and, once finished, the download URL.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Type      models.ReportType   `json:"type"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
