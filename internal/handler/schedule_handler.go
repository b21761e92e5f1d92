package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pc-discussion-scheduler/internal/dto"
	"github.com/noah-isme/pc-discussion-scheduler/internal/models"
	"github.com/noah-isme/pc-discussion-scheduler/internal/service"
	appErrors "github.com/noah-isme/pc-discussion-scheduler/pkg/errors"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/response"
)

type scheduleRunService interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest, actor string) (*dto.ScheduleRunResponse, error)
	Get(ctx context.Context, id string) (*dto.ScheduleRunResponse, error)
	List(ctx context.Context, filter models.ScheduleRunFilter) ([]dto.ScheduleRunSummary, *models.Pagination, error)
	Export(ctx context.Context, id string, format models.ExportFormat, detail bool) (*service.Artifact, error)
}

// ScheduleHandler exposes discussion schedule runs.
type ScheduleHandler struct {
	service scheduleRunService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc scheduleRunService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Generate godoc
// @Summary Run the discussion scheduler
// @Description Places every paper into a discussion slot using the reviewers' availability.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Input tables"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedules/runs [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload"))
		return
	}
	run, err := h.service.Generate(c.Request.Context(), req, operatorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, run)
}

// List godoc
// @Summary List schedule runs
// @Tags Schedules
// @Produce json
// @Param status query string false "COMPLETE or PARTIAL"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules/runs [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	filter := models.ScheduleRunFilter{
		Page:     parseIntDefault(c.Query("page"), 1),
		PageSize: parseIntDefault(c.Query("page_size"), 20),
	}
	if raw := strings.ToUpper(strings.TrimSpace(c.Query("status"))); raw != "" {
		status := models.ScheduleRunStatus(raw)
		if status != models.ScheduleRunStatusComplete && status != models.ScheduleRunStatusPartial {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be COMPLETE or PARTIAL"))
			return
		}
		filter.Status = &status
	}
	runs, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, pagination)
}

// Get godoc
// @Summary Get a schedule run
// @Tags Schedules
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/runs/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	run, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// Export godoc
// @Summary Download a rendered schedule
// @Tags Schedules
// @Produce text/csv
// @Produce application/pdf
// @Produce application/yaml
// @Param id path string true "Run ID"
// @Param format query string false "csv, pdf or yaml"
// @Param detail query bool false "One row per placement instead of the slot grid"
// @Success 200 {file} file
// @Router /schedules/runs/{id}/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	format := models.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(models.ExportFormatCSV))))
	detail, err := parseBoolDefault(c.Query("detail"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "detail must be a boolean"))
		return
	}
	artifact, err := h.service.Export(c.Request.Context(), c.Param("id"), format, detail)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", artifact.Filename))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

func parseIntDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseBoolDefault(raw string, fallback bool) (bool, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseBool(raw)
}
