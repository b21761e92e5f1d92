package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/pc-discussion-scheduler/internal/models"
)

const scheduleRunColumns = `id, label, status, slot_count, capacity, threshold_floor, enforce_capacity, paper_count, placed_count, thresholds_visited, unscheduled, notices, report, created_by, created_at`

// ScheduleRunRepository persists allocator runs.
type ScheduleRunRepository struct {
	db *sqlx.DB
}

// NewScheduleRunRepository constructs repository.
func NewScheduleRunRepository(db *sqlx.DB) *ScheduleRunRepository {
	return &ScheduleRunRepository{db: db}
}

func (r *ScheduleRunRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a run row, filling ID, timestamps and empty JSON columns.
func (r *ScheduleRunRepository) Create(ctx context.Context, exec sqlx.ExtContext, run *models.ScheduleRun) error {
	if run == nil {
		return fmt.Errorf("schedule run payload is nil")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = models.ScheduleRunStatusComplete
	}
	if len(run.Unscheduled) == 0 {
		run.Unscheduled = types.JSONText(`[]`)
	}
	if len(run.Notices) == 0 {
		run.Notices = types.JSONText(`[]`)
	}
	if len(run.Report) == 0 {
		run.Report = types.JSONText(`{}`)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO schedule_runs (` + scheduleRunColumns + `)
VALUES (:id, :label, :status, :slot_count, :capacity, :threshold_floor, :enforce_capacity, :paper_count, :placed_count, :thresholds_visited, :unscheduled, :notices, :report, :created_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, run); err != nil {
		return fmt.Errorf("insert schedule run: %w", err)
	}
	return nil
}

// FindByID loads a run by its identifier. A missing row yields sql.ErrNoRows.
func (r *ScheduleRunRepository) FindByID(ctx context.Context, id string) (*models.ScheduleRun, error) {
	query := `SELECT ` + scheduleRunColumns + ` FROM schedule_runs WHERE id = $1`
	var run models.ScheduleRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns runs newest first with the total count matching filter.
func (r *ScheduleRunRepository) List(ctx context.Context, filter models.ScheduleRunFilter) ([]models.ScheduleRun, int, error) {
	conditions := []string{"1=1"}
	args := make([]interface{}, 0, 1)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM schedule_runs WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, scheduleRunColumns, where, size, offset)
	var runs []models.ScheduleRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedule runs: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM schedule_runs WHERE %s`, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedule runs: %w", err)
	}
	return runs, total, nil
}
