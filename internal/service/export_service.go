package service

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pc-discussion-scheduler/internal/dto"
	"github.com/noah-isme/pc-discussion-scheduler/internal/models"
	appErrors "github.com/noah-isme/pc-discussion-scheduler/pkg/errors"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/export"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

var detailHeaders = []string{"Slot", "Position", "Paper", "Hash", "Title", "Score", "Threshold", "Phase"}

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
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// Artifact is a rendered export held in memory.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders schedule runs and persists the rendered files.
type ExportService struct {
	storage fileStorage
	csv     datasetRenderer
	pdf     datasetRenderer
	yaml    datasetRenderer
	signer  *storage.SignedURLSigner
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService. storage and signer may be nil
// for render-only use such as the CLI.
func NewExportService(storage fileStorage, signer *storage.SignedURLSigner, metrics *MetricsService, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		storage: storage,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		yaml:    export.NewYAMLExporter(),
		signer:  signer,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Render produces the bytes of run in format. The grid form is the slot table:
// one column per populated slot, paper IDs in placement order. The detail form
// lists every placement on its own row.
func (s *ExportService) Render(run *dto.ScheduleRunResponse, format models.ExportFormat, detail bool) (*Artifact, error) {
	if run == nil {
		return nil, fmt.Errorf("run nil")
	}
	renderer, err := s.renderer(format)
	if err != nil {
		return nil, err
	}

	dataset := GridDataset(run)
	if detail {
		dataset = DetailDataset(run)
	}
	payload, err := renderer.Render(dataset)
	s.metrics.RecordExport(string(format), err == nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &Artifact{
		Filename:    exportFilename(run, format, detail),
		ContentType: format.ContentType(),
		Data:        payload,
	}, nil
}

// Generate renders the run for job, stores the file and signs a download token.
func (s *ExportService) Generate(job *models.ExportJob, run *dto.ScheduleRunResponse) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "export storage is not configured")
	}
	artifact, err := s.Render(run, job.Format, job.Detail)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(artifact.Filename, artifact.Data)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Info("schedule export stored",
		zap.String("job_id", job.ID),
		zap.String("run_id", run.ID),
		zap.String("path", relPath),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", prefix, token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	if s.signer == nil {
		return "", "", time.Time{}, fmt.Errorf("signer not configured")
	}
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

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if s.storage == nil {
		return nil, nil
	}
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) renderer(format models.ExportFormat) (datasetRenderer, error) {
	switch format {
	case models.ExportFormatCSV:
		return s.csv, nil
	case models.ExportFormatPDF:
		return s.pdf, nil
	case models.ExportFormatYAML:
		return s.yaml, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}
}

// GridDataset lays the slot table out as a dataset; short columns stay empty.
// A run without placements keeps the bare header of every configured slot.
func GridDataset(run *dto.ScheduleRunResponse) export.Dataset {
	headers := run.Table.Header()
	if len(headers) == 0 {
		for slot := 1; slot <= run.Settings.SlotCount; slot++ {
			headers = append(headers, strconv.Itoa(slot))
		}
	}
	rows := make([]map[string]string, 0)
	for _, cells := range run.Table.Rows() {
		row := make(map[string]string, len(headers))
		for i, cell := range cells {
			if cell != "" {
				row[headers[i]] = cell
			}
		}
		rows = append(rows, row)
	}
	return export.Dataset{Title: exportTitle(run), Headers: headers, Rows: rows}
}

// DetailDataset lists placements in slot order, then position.
func DetailDataset(run *dto.ScheduleRunResponse) export.Dataset {
	placements := make([]dto.PlacementResponse, len(run.Placements))
	copy(placements, run.Placements)
	sortPlacementsBySlot(placements)

	rows := make([]map[string]string, 0, len(placements))
	for _, p := range placements {
		rows = append(rows, map[string]string{
			"Slot":      strconv.Itoa(p.Slot),
			"Position":  strconv.Itoa(p.Position + 1),
			"Paper":     strconv.Itoa(p.PaperID),
			"Hash":      p.Hash,
			"Title":     p.Title,
			"Score":     strconv.Itoa(p.Score),
			"Threshold": strconv.Itoa(p.Threshold),
			"Phase":     strconv.Itoa(p.Phase),
		})
	}
	return export.Dataset{Title: exportTitle(run), Headers: detailHeaders, Rows: rows}
}

func exportTitle(run *dto.ScheduleRunResponse) string {
	if run.Label != "" {
		return "PC discussion schedule: " + run.Label
	}
	return "PC discussion schedule"
}

func exportFilename(run *dto.ScheduleRunResponse, format models.ExportFormat, detail bool) string {
	kind := "schedule"
	if detail {
		kind = "schedule_detail"
	}
	label := sanitizeFilename(run.Label)
	if label == "" {
		label = shortID(run.ID)
	}
	timestamp := run.CreatedAt.UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", kind, label, timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return ""
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "run"
	}
	return id
}
