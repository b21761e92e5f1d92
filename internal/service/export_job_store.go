package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/pc-discussion-scheduler/internal/models"
	appErrors "github.com/noah-isme/pc-discussion-scheduler/pkg/errors"
)

// UpdateExportJobParams lists the mutable fields of an export job.
type UpdateExportJobParams struct {
	Status       *models.ExportStatus
	ResultURL    *string
	ExpiresAt    *time.Time
	ErrorMessage *string
	FinishedAt   *time.Time
}

// MemoryExportJobStore tracks export jobs for the lifetime of the process.
type MemoryExportJobStore struct {
	mu   sync.RWMutex
	jobs map[string]models.ExportJob
}

// NewMemoryExportJobStore builds an empty job registry.
func NewMemoryExportJobStore() *MemoryExportJobStore {
	return &MemoryExportJobStore{jobs: make(map[string]models.ExportJob)}
}

// Create registers job, assigning an ID and creation time when missing.
func (s *MemoryExportJobStore) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	s.jobs[job.ID] = *job
	s.mu.Unlock()
	return nil
}

// GetByID returns a copy of the job.
func (s *MemoryExportJobStore) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return &job, nil
}

// Update applies the non-nil fields of params.
func (s *MemoryExportJobStore) Update(ctx context.Context, id string, params UpdateExportJobParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ResultURL != nil {
		url := *params.ResultURL
		job.ResultURL = &url
	}
	if params.ExpiresAt != nil {
		expires := *params.ExpiresAt
		job.ExpiresAt = &expires
	}
	if params.ErrorMessage != nil {
		if *params.ErrorMessage == "" {
			job.ErrorMessage = nil
		} else {
			msg := *params.ErrorMessage
			job.ErrorMessage = &msg
		}
	}
	if params.FinishedAt != nil {
		finished := *params.FinishedAt
		job.FinishedAt = &finished
	}
	s.jobs[id] = job
	return nil
}

// ListFinishedBefore returns finished jobs completed before cutoff.
func (s *MemoryExportJobStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return s.collect(limit, func(job models.ExportJob) bool {
		return job.Status == models.ExportStatusFinished && job.FinishedAt != nil && job.FinishedAt.Before(cutoff)
	}), nil
}

// Delete forgets a job.
func (s *MemoryExportJobStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryExportJobStore) collect(limit int, keep func(models.ExportJob) bool) []models.ExportJob {
	s.mu.RLock()
	out := make([]models.ExportJob, 0)
	for _, job := range s.jobs {
		if keep(job) {
			out = append(out, job)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
