package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pc-discussion-scheduler/internal/models"
)

// SchedulePlacementRepository stores the placements of a run.
type SchedulePlacementRepository struct {
	db *sqlx.DB
}

// NewSchedulePlacementRepository builds repository.
func NewSchedulePlacementRepository(db *sqlx.DB) *SchedulePlacementRepository {
	return &SchedulePlacementRepository{db: db}
}

func (r *SchedulePlacementRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch writes placements in sequence order.
func (r *SchedulePlacementRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, placements []models.SchedulePlacement) error {
	if len(placements) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO schedule_placements (id, run_id, sequence, slot, position, paper_id, paper_hash, title, score, threshold, phase, created_at)
VALUES (:id, :run_id, :sequence, :slot, :position, :paper_id, :paper_hash, :title, :score, :threshold, :phase, :created_at)`

	for i := range placements {
		p := &placements[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, p); err != nil {
			return fmt.Errorf("insert schedule placement: %w", err)
		}
	}
	return nil
}

// ListByRun returns placements of a run in the order they were made.
func (r *SchedulePlacementRepository) ListByRun(ctx context.Context, runID string) ([]models.SchedulePlacement, error) {
	const query = `SELECT id, run_id, sequence, slot, position, paper_id, paper_hash, title, score, threshold, phase, created_at
FROM schedule_placements WHERE run_id = $1 ORDER BY sequence ASC`
	var placements []models.SchedulePlacement
	if err := r.db.SelectContext(ctx, &placements, query, runID); err != nil {
		return nil, fmt.Errorf("list schedule placements: %w", err)
	}
	return placements, nil
}
