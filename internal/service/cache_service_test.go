package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenCacheRepo struct{}

func (brokenCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("connection refused")
}

func (brokenCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (brokenCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	return errors.New("connection refused")
}

func TestCacheServiceRecordsHitsAndMisses(t *testing.T) {
	metrics := NewMetricsService()
	cache := NewCacheService(newMemoryCacheRepo(), metrics, time.Minute, nil, true)
	ctx := context.Background()

	var out map[string]int
	hit, err := cache.Get(ctx, runCacheKey("run-1"), &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, runCacheKey("run-1"), map[string]int{"placed": 3}, 0))
	hit, err = cache.Get(ctx, runCacheKey("run-1"), &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, out["placed"])

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))
	assert.Equal(t, 0.5, testutil.ToFloat64(metrics.cacheHitRatio))
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	cache := NewCacheService(brokenCacheRepo{}, nil, time.Minute, nil, false)
	hit, err := cache.Get(context.Background(), "k", &struct{}{})
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, cache.Set(context.Background(), "k", 1, 0))

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	cache := NewCacheService(brokenCacheRepo{}, nil, time.Minute, nil, true)
	_, err := cache.Get(context.Background(), "k", &struct{}{})
	assert.Error(t, err)
	assert.Error(t, cache.Invalidate(context.Background(), "schedule:*"))
}

func TestMetricsServiceObservesAllocation(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveAllocation("PARTIAL", 5, 2, 7, 20*time.Millisecond)
	metrics.RecordExport("csv", true)
	metrics.RecordExport("pdf", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.allocationRuns.WithLabelValues("PARTIAL")))
	assert.Equal(t, float64(5), testutil.ToFloat64(metrics.placements))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.unscheduled))
	assert.Equal(t, float64(7), testutil.ToFloat64(metrics.notices))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.exportsTotal.WithLabelValues("pdf", "error")))

	var nilMetrics *MetricsService
	nilMetrics.ObserveAllocation("COMPLETE", 1, 0, 0, time.Millisecond)
}

func TestMetricsServiceExposesRunOutcomesBeforeFirstRun(t *testing.T) {
	metrics := NewMetricsService()
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.allocationRuns))

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `scheduler_runs_total{status="COMPLETE"} 0`)
	assert.Contains(t, w.Body.String(), `scheduler_runs_total{status="PARTIAL"} 0`)
}

func TestRunStoreExpiresEntries(t *testing.T) {
	store := newRunStore(time.Minute)
	svc := NewScheduleService(nil, nil, nil, nil, nil, nil, nil, nil, testScheduleConfig())
	run, err := svc.Generate(context.Background(), sampleScheduleRequest(), "chair")
	require.NoError(t, err)

	stale := *run
	stale.CreatedAt = time.Now().Add(-2 * time.Minute)
	store.Save(stale)
	_, ok := store.Get(run.ID)
	assert.False(t, ok)

	store.Save(*run)
	got, ok := store.Get(run.ID)
	require.True(t, ok)
	assert.Equal(t, run.ID, got.ID)
}
