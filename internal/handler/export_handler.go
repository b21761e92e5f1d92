package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pc-discussion-scheduler/internal/dto"
	"github.com/noah-isme/pc-discussion-scheduler/internal/service"
	appErrors "github.com/noah-isme/pc-discussion-scheduler/pkg/errors"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/response"
)

type exportJobService interface {
	CreateJob(ctx context.Context, runID string, req dto.ExportRequest, actor string) (*dto.ExportJobResponse, error)
	GetStatus(ctx context.Context, id string) (*dto.ExportJobResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler exposes asynchronous schedule exports.
type ExportHandler struct {
	service exportJobService
}

// NewExportHandler constructs handler.
func NewExportHandler(svc exportJobService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Enqueue godoc
// @Summary Queue a schedule export
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Param payload body dto.ExportRequest true "Export options"
// @Success 202 {object} response.Envelope
// @Router /schedules/runs/{id}/exports [post]
func (h *ExportHandler) Enqueue(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload"))
		return
	}
	job, err := h.service.CreateJob(c.Request.Context(), c.Param("id"), req, operatorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /export-jobs/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	job, err := h.service.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a stored export via signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	result, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close()

	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.DataFromReader(http.StatusOK, info.Size(), result.Format.ContentType(), result.File, nil)
}
