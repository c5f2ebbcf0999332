package models

import "time"

// ExportJobStatus tracks a queued export through its lifecycle.
type ExportJobStatus string

const (
	ExportStatusQueued     ExportJobStatus = "QUEUED"
	ExportStatusProcessing ExportJobStatus = "PROCESSING"
	ExportStatusFinished   ExportJobStatus = "FINISHED"
	ExportStatusFailed     ExportJobStatus = "FAILED"
)

// Supported export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ExportJob is one queued effective-schedule export request.
type ExportJob struct {
	ID           string          `db:"id" json:"id"`
	UserID       string          `db:"user_id" json:"user_id"`
	WeekStart    string          `db:"week_start" json:"week_start"`
	Format       string          `db:"format" json:"format"`
	Status       ExportJobStatus `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}
