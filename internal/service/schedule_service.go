package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/pc-discussion-scheduler/internal/dto"
	"github.com/noah-isme/pc-discussion-scheduler/internal/ingest"
	"github.com/noah-isme/pc-discussion-scheduler/internal/models"
	"github.com/noah-isme/pc-discussion-scheduler/internal/scheduler"
	appErrors "github.com/noah-isme/pc-discussion-scheduler/pkg/errors"
)

type scheduleRunRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, run *models.ScheduleRun) error
	FindByID(ctx context.Context, id string) (*models.ScheduleRun, error)
	List(ctx context.Context, filter models.ScheduleRunFilter) ([]models.ScheduleRun, int, error)
}

type schedulePlacementRepository interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, placements []models.SchedulePlacement) error
	ListByRun(ctx context.Context, runID string) ([]models.SchedulePlacement, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ScheduleServiceConfig carries allocator defaults and run retention.
type ScheduleServiceConfig struct {
	SlotCount       int
	Capacity        int
	ThresholdFloor  int
	DeriveFloor     bool
	EnforceCapacity bool
	MaxPapers       int
	MaxReviewers    int
	// RunTTL bounds how long runs stay in memory when no database is wired.
	RunTTL   time.Duration
	CacheTTL time.Duration
}

// ScheduleService turns input tables into discussion schedules and keeps the results.
type ScheduleService struct {
	runs       scheduleRunRepository
	placements schedulePlacementRepository
	tx         txProvider
	cache      *CacheService
	metrics    *MetricsService
	exporter   *ExportService
	validator  *validator.Validate
	logger     *zap.Logger
	store      *runStore
	cfg        ScheduleServiceConfig
}

// NewScheduleService wires scheduler dependencies. runs, placements and tx may
// all be nil, in which case runs live in memory for cfg.RunTTL.
func NewScheduleService(
	runs scheduleRunRepository,
	placements schedulePlacementRepository,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	exporter *ExportService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleServiceConfig,
) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlotCount <= 0 {
		cfg.SlotCount = scheduler.DefaultSlotCount
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = scheduler.DefaultCapacity
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 24 * time.Hour
	}
	if exporter == nil {
		exporter = NewExportService(nil, nil, metrics, ExportConfig{}, logger)
	}
	return &ScheduleService{
		runs:       runs,
		placements: placements,
		tx:         tx,
		cache:      cache,
		metrics:    metrics,
		exporter:   exporter,
		validator:  validate,
		logger:     logger,
		store:      newRunStore(cfg.RunTTL),
		cfg:        cfg,
	}
}

func (s *ScheduleService) persistent() bool {
	return s.runs != nil && s.placements != nil && s.tx != nil
}

// Generate validates the request payload and runs the allocator on its tables.
func (s *ScheduleService) Generate(ctx context.Context, req dto.GenerateScheduleRequest, actor string) (*dto.ScheduleRunResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule request")
	}
	return s.RunTables(ctx, req.Tables(), req.Label, actor, req.Capacity)
}

// RunTables normalises tables, runs one allocator sweep and stores the result.
// capacity overrides the configured slot capacity when non-nil.
func (s *ScheduleService) RunTables(ctx context.Context, tables ingest.Tables, label, actor string, capacity *int) (*dto.ScheduleRunResponse, error) {
	started := time.Now()
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID))

	input, err := ingest.Build(tables, ingest.Options{SlotCount: s.cfg.SlotCount, Logger: logger})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTable.Code, appErrors.ErrInvalidTable.Status, "input tables could not be normalised")
	}
	if s.cfg.MaxReviewers > 0 && input.Matrix.Len() > s.cfg.MaxReviewers {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("too many reviewers: %d > %d", input.Matrix.Len(), s.cfg.MaxReviewers))
	}
	if s.cfg.MaxPapers > 0 && len(input.Papers) > s.cfg.MaxPapers {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("too many papers: %d > %d", len(input.Papers), s.cfg.MaxPapers))
	}

	opts := scheduler.Options{
		SlotCount:       s.cfg.SlotCount,
		Capacity:        s.cfg.Capacity,
		ThresholdFloor:  s.cfg.ThresholdFloor,
		DeriveFloor:     s.cfg.DeriveFloor,
		EnforceCapacity: s.cfg.EnforceCapacity,
		Logger:          logger,
	}
	if capacity != nil {
		opts.Capacity = *capacity
	}
	allocator, err := scheduler.NewAllocator(opts)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	result := allocator.Run(scheduler.NewPaperPool(input.Papers))

	run := buildRunResponse(runID, label, actor, allocator.Options(), input, result)
	s.metrics.ObserveAllocation(string(run.Status), len(run.Placements), len(run.Unscheduled), len(run.Notices), time.Since(started))

	if s.persistent() {
		if err := s.persist(ctx, run); err != nil {
			return nil, err
		}
		_ = s.cache.Invalidate(ctx, runListCachePattern)
	} else {
		s.store.Save(*run)
	}
	_ = s.cache.Set(ctx, runCacheKey(run.ID), run, s.cfg.CacheTTL)

	logger.Info("schedule run stored",
		zap.String("status", string(run.Status)),
		zap.Int("placed", len(run.Placements)),
		zap.Int("unscheduled", len(run.Unscheduled)),
		zap.Bool("persistent", s.persistent()),
	)
	return run, nil
}

// Get loads a run from the cache, memory, or the database, in that order.
func (s *ScheduleService) Get(ctx context.Context, id string) (*dto.ScheduleRunResponse, error) {
	var cached dto.ScheduleRunResponse
	if hit, _ := s.cache.Get(ctx, runCacheKey(id), &cached); hit {
		return &cached, nil
	}
	if run, ok := s.store.Get(id); ok {
		return &run, nil
	}
	if !s.persistent() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule run not found")
	}

	start := time.Now()
	record, err := s.runs.FindByID(ctx, id)
	s.metrics.ObserveDBQuery("schedule_runs.find", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule run")
	}
	placements, err := s.placements.ListByRun(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placements")
	}
	run, err := runFromModels(record, placements)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored schedule run is corrupt")
	}
	_ = s.cache.Set(ctx, runCacheKey(id), run, s.cfg.CacheTTL)
	return run, nil
}

// List returns run summaries, newest first.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleRunFilter) ([]dto.ScheduleRunSummary, *models.Pagination, error) {
	page, size := normalizePage(filter.Page, filter.PageSize)
	filter.Page, filter.PageSize = page, size

	if !s.persistent() {
		runs, total := s.store.List(filter)
		summaries := make([]dto.ScheduleRunSummary, 0, len(runs))
		for _, run := range runs {
			summaries = append(summaries, dto.ScheduleRunSummary{
				ID:          run.ID,
				Label:       run.Label,
				Status:      run.Status,
				PaperCount:  len(run.Placements) + len(run.Unscheduled),
				PlacedCount: len(run.Placements),
				CreatedAt:   run.CreatedAt,
			})
		}
		return summaries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
	}

	key := runListCacheKey(filter)
	var cached runListPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Items, cached.Pagination, nil
	}

	start := time.Now()
	records, total, err := s.runs.List(ctx, filter)
	s.metrics.ObserveDBQuery("schedule_runs.list", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule runs")
	}
	summaries := make([]dto.ScheduleRunSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, dto.ScheduleRunSummary{
			ID:          record.ID,
			Label:       record.Label,
			Status:      record.Status,
			PaperCount:  record.PaperCount,
			PlacedCount: record.PlacedCount,
			CreatedAt:   record.CreatedAt,
		})
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	_ = s.cache.Set(ctx, key, runListPage{Items: summaries, Pagination: pagination}, s.cfg.CacheTTL)
	return summaries, pagination, nil
}

// Export renders a stored run synchronously.
func (s *ScheduleService) Export(ctx context.Context, id string, format models.ExportFormat, detail bool) (*Artifact, error) {
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}
	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.exporter.Render(run, format, detail)
}

func (s *ScheduleService) persist(ctx context.Context, run *dto.ScheduleRunResponse) (err error) {
	record, placements, err := runToModels(run)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule run")
	}

	start := time.Now()
	defer func() {
		s.metrics.ObserveDBQuery("schedule_runs.create", time.Since(start))
	}()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.runs.Create(ctx, tx, record); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule run")
	}
	if err = s.placements.InsertBatch(ctx, tx, placements); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store placements")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule run")
	}
	return nil
}

func buildRunResponse(id, label, actor string, opts scheduler.Options, input *ingest.Input, result *scheduler.Result) *dto.ScheduleRunResponse {
	papers := make(map[int]*scheduler.Paper, len(input.Papers))
	for _, p := range input.Papers {
		papers[p.ID] = p
	}

	positions := make(map[int]int)
	placements := make([]dto.PlacementResponse, 0, len(result.Placements))
	for i, pl := range result.Placements {
		resp := dto.PlacementResponse{
			Sequence:  i,
			Slot:      pl.Slot,
			Position:  positions[pl.Slot],
			PaperID:   pl.PaperID,
			Score:     pl.Score,
			Threshold: pl.Threshold,
			Phase:     pl.Phase,
		}
		if p, ok := papers[pl.PaperID]; ok {
			resp.Hash = p.Hash
			resp.Title = p.Title
		}
		positions[pl.Slot]++
		placements = append(placements, resp)
	}

	unscheduled := make([]dto.UnscheduledPaper, 0, len(result.Unscheduled))
	for _, paperID := range result.Unscheduled {
		entry := dto.UnscheduledPaper{PaperID: paperID}
		if p, ok := papers[paperID]; ok {
			entry.Hash = p.Hash
			entry.Title = p.Title
		}
		unscheduled = append(unscheduled, entry)
	}

	notices := result.Notices
	if notices == nil {
		notices = []scheduler.Notice{}
	}

	status := models.ScheduleRunStatusComplete
	if len(unscheduled) > 0 {
		status = models.ScheduleRunStatusPartial
	}

	return &dto.ScheduleRunResponse{
		ID:     id,
		Label:  label,
		Status: status,
		Settings: dto.ScheduleSettings{
			SlotCount:       opts.SlotCount,
			Capacity:        opts.Capacity,
			ThresholdFloor:  result.Floor,
			EnforceCapacity: opts.EnforceCapacity,
		},
		Table:             result.Table(),
		Placements:        placements,
		Unscheduled:       unscheduled,
		Notices:           notices,
		ThresholdsVisited: result.ThresholdsVisited,
		Report:            input.Report,
		CreatedBy:         actor,
		CreatedAt:         time.Now().UTC(),
	}
}

func runToModels(run *dto.ScheduleRunResponse) (*models.ScheduleRun, []models.SchedulePlacement, error) {
	unscheduled, err := json.Marshal(run.Unscheduled)
	if err != nil {
		return nil, nil, err
	}
	notices, err := json.Marshal(run.Notices)
	if err != nil {
		return nil, nil, err
	}
	report, err := json.Marshal(run.Report)
	if err != nil {
		return nil, nil, err
	}

	record := &models.ScheduleRun{
		ID:                run.ID,
		Label:             run.Label,
		Status:            run.Status,
		SlotCount:         run.Settings.SlotCount,
		Capacity:          run.Settings.Capacity,
		ThresholdFloor:    run.Settings.ThresholdFloor,
		EnforceCapacity:   run.Settings.EnforceCapacity,
		PaperCount:        len(run.Placements) + len(run.Unscheduled),
		PlacedCount:       len(run.Placements),
		ThresholdsVisited: run.ThresholdsVisited,
		Unscheduled:       types.JSONText(unscheduled),
		Notices:           types.JSONText(notices),
		Report:            types.JSONText(report),
		CreatedBy:         run.CreatedBy,
		CreatedAt:         run.CreatedAt,
	}

	placements := make([]models.SchedulePlacement, 0, len(run.Placements))
	for _, p := range run.Placements {
		placements = append(placements, models.SchedulePlacement{
			RunID:     run.ID,
			Sequence:  p.Sequence,
			Slot:      p.Slot,
			Position:  p.Position,
			PaperID:   p.PaperID,
			PaperHash: p.Hash,
			Title:     p.Title,
			Score:     p.Score,
			Threshold: p.Threshold,
			Phase:     p.Phase,
			CreatedAt: run.CreatedAt,
		})
	}
	return record, placements, nil
}

// runFromModels rebuilds the response by replaying placements into a fresh store.
func runFromModels(record *models.ScheduleRun, rows []models.SchedulePlacement) (*dto.ScheduleRunResponse, error) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Sequence < rows[j].Sequence })

	store := scheduler.NewScheduleStore()
	placements := make([]dto.PlacementResponse, 0, len(rows))
	for _, row := range rows {
		store.Place(row.Slot, row.PaperID, row.Score)
		placements = append(placements, dto.PlacementResponse{
			Sequence:  row.Sequence,
			Slot:      row.Slot,
			Position:  row.Position,
			PaperID:   row.PaperID,
			Hash:      row.PaperHash,
			Title:     row.Title,
			Score:     row.Score,
			Threshold: row.Threshold,
			Phase:     row.Phase,
		})
	}

	run := &dto.ScheduleRunResponse{
		ID:     record.ID,
		Label:  record.Label,
		Status: record.Status,
		Settings: dto.ScheduleSettings{
			SlotCount:       record.SlotCount,
			Capacity:        record.Capacity,
			ThresholdFloor:  record.ThresholdFloor,
			EnforceCapacity: record.EnforceCapacity,
		},
		Table:             store.Export(),
		Placements:        placements,
		Unscheduled:       []dto.UnscheduledPaper{},
		Notices:           []scheduler.Notice{},
		ThresholdsVisited: record.ThresholdsVisited,
		CreatedBy:         record.CreatedBy,
		CreatedAt:         record.CreatedAt,
	}
	if len(record.Unscheduled) > 0 {
		if err := record.Unscheduled.Unmarshal(&run.Unscheduled); err != nil {
			return nil, fmt.Errorf("decode unscheduled: %w", err)
		}
	}
	if len(record.Notices) > 0 {
		if err := record.Notices.Unmarshal(&run.Notices); err != nil {
			return nil, fmt.Errorf("decode notices: %w", err)
		}
	}
	if len(record.Report) > 0 {
		if err := record.Report.Unmarshal(&run.Report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
	}
	return run, nil
}

func sortPlacementsBySlot(placements []dto.PlacementResponse) {
	sort.SliceStable(placements, func(i, j int) bool {
		if placements[i].Slot != placements[j].Slot {
			return placements[i].Slot < placements[j].Slot
		}
		return placements[i].Position < placements[j].Position
	})
}
