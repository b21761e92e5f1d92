package dto

import (
	"time"

	"github.com/noah-isme/pc-discussion-scheduler/internal/models"
)

// ExportRequest asks for an asynchronous export of a run.
type ExportRequest struct {
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf yaml"`
	Detail bool                `json:"detail"`
}

// ExportJobResponse exposes export job progress.
type ExportJobResponse struct {
	ID        string              `json:"id"`
	RunID     string              `json:"runId"`
	Format    models.ExportFormat `json:"format"`
	Status    models.ExportStatus `json:"status"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	ExpiresAt *time.Time          `json:"expiresAt,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
