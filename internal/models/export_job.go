package models

import "time"

// ExportFormat enumerates rendered schedule formats.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatYAML ExportFormat = "yaml"
)

// ContentType returns the MIME type served for the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatPDF:
		return "application/pdf"
	case ExportFormatYAML:
		return "application/yaml"
	default:
		return "text/csv"
	}
}

// Valid reports whether the format can be rendered.
func (f ExportFormat) Valid() bool {
	return f == ExportFormatCSV || f == ExportFormatPDF || f == ExportFormatYAML
}

// ExportStatus captures background export lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob tracks an asynchronous schedule export.
type ExportJob struct {
	ID           string       `json:"id"`
	RunID        string       `json:"run_id"`
	Format       ExportFormat `json:"format"`
	Detail       bool         `json:"detail"`
	Status       ExportStatus `json:"status"`
	ResultURL    *string      `json:"result_url,omitempty"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	CreatedBy    string       `json:"created_by"`
	CreatedAt    time.Time    `json:"created_at"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
}
