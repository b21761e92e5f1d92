package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalmiddleware "github.com/noah-isme/pc-discussion-scheduler/internal/middleware"
	"github.com/noah-isme/pc-discussion-scheduler/internal/service"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/jobs"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/storage"
)

func newEndToEndRouter(t *testing.T, dir string) (*gin.Engine, *service.ScheduleService) {
	t.Helper()
	local, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	metrics := service.NewMetricsService()
	exporter := service.NewExportService(local, signer, metrics, service.ExportConfig{APIPrefix: "/api/v1"}, nil)
	schedules := service.NewScheduleService(nil, nil, nil, nil, metrics, exporter, nil, nil, service.ScheduleServiceConfig{
		SlotCount:       2,
		Capacity:        6,
		ThresholdFloor:  -11,
		DeriveFloor:     true,
		EnforceCapacity: true,
	})
	store := service.NewMemoryExportJobStore()
	worker := service.NewExportWorker(store, schedules, exporter, 1, nil)
	queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{Workers: 1, MaxRetries: 1, RetryDelay: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)
	t.Cleanup(func() {
		cancel()
		queue.Stop()
	})
	exportJobs := service.NewExportJobService(store, schedules, queue, exporter, nil, nil, service.ExportJobServiceConfig{})

	r := gin.New()
	r.Use(internalmiddleware.Metrics(metrics))
	Routes{
		Schedules: NewScheduleHandler(schedules),
		Exports:   NewExportHandler(exportJobs),
		Metrics:   NewMetricsHandler(metrics, nil),
	}.Register(r, "/api/v1", nil)
	return r, schedules
}

func TestRoutesGuardSparesSignedDownloads(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	Routes{
		Schedules: NewScheduleHandler(&scheduleServiceStub{}),
		Exports:   NewExportHandler(&exportServiceStub{}),
	}.Register(r, "api/v1/", deny)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/schedules/runs", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/exports/bad-token", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	h := NewMetricsHandler(metrics, map[string]Pinger{
		"postgres": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("dial tcp: refused") },
	})
	r := gin.New()
	Routes{Metrics: h}.Register(r, "/api/v1", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"postgres":"ok"`)
	assert.Contains(t, w.Body.String(), "refused")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "scheduler_runs_total")
}
