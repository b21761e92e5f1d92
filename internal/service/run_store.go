package service

import (
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/pc-discussion-scheduler/internal/dto"
	"github.com/noah-isme/pc-discussion-scheduler/internal/models"
)

// runStore keeps finished runs in memory when Postgres persistence is off.
type runStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]dto.ScheduleRunResponse
}

func newRunStore(ttl time.Duration) *runStore {
	return &runStore{
		ttl:   ttl,
		items: make(map[string]dto.ScheduleRunResponse),
	}
}

func (s *runStore) Save(run dto.ScheduleRunResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[run.ID] = run
}

func (s *runStore) Get(id string) (dto.ScheduleRunResponse, bool) {
	s.mu.RLock()
	run, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return dto.ScheduleRunResponse{}, false
	}
	if s.expired(run) {
		s.Delete(id)
		return dto.ScheduleRunResponse{}, false
	}
	return run, true
}

func (s *runStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// List mirrors the repository listing: newest first, optional status filter.
func (s *runStore) List(filter models.ScheduleRunFilter) ([]dto.ScheduleRunResponse, int) {
	s.mu.Lock()
	matched := make([]dto.ScheduleRunResponse, 0, len(s.items))
	for id, run := range s.items {
		if s.expired(run) {
			delete(s.items, id)
			continue
		}
		if filter.Status != nil && run.Status != *filter.Status {
			continue
		}
		matched = append(matched, run)
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	page, size := normalizePage(filter.Page, filter.PageSize)
	start := (page - 1) * size
	if start >= total {
		return []dto.ScheduleRunResponse{}, total
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total
}

func (s *runStore) expired(run dto.ScheduleRunResponse) bool {
	return s.ttl > 0 && time.Since(run.CreatedAt) > s.ttl
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 20
	}
	return page, size
}
