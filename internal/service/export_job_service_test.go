package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pc-discussion-scheduler/internal/dto"
	"github.com/noah-isme/pc-discussion-scheduler/internal/models"
	appErrors "github.com/noah-isme/pc-discussion-scheduler/pkg/errors"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/jobs"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/storage"
)

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type failingRunLoader struct{}

func (failingRunLoader) Get(ctx context.Context, id string) (*dto.ScheduleRunResponse, error) {
	return nil, errors.New("database unavailable")
}

type exportFixture struct {
	schedules *ScheduleService
	exporter  *ExportService
	store     *MemoryExportJobStore
	queue     *dispatcherStub
	jobs      *ExportJobService
	worker    *ExportWorker
	run       *dto.ScheduleRunResponse
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	exporter := NewExportService(local, signer, nil, ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}, nil)

	schedules := NewScheduleService(nil, nil, nil, nil, nil, exporter, nil, nil, testScheduleConfig())
	run, err := schedules.Generate(context.Background(), sampleScheduleRequest(), "chair")
	require.NoError(t, err)

	store := NewMemoryExportJobStore()
	queue := &dispatcherStub{}
	return &exportFixture{
		schedules: schedules,
		exporter:  exporter,
		store:     store,
		queue:     queue,
		jobs:      NewExportJobService(store, schedules, queue, exporter, nil, nil, ExportJobServiceConfig{ResultTTL: time.Hour}),
		worker:    NewExportWorker(store, schedules, exporter, 3, nil),
		run:       run,
	}
}

func TestExportJobLifecycle(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	created, err := f.jobs.CreateJob(ctx, f.run.ID, dto.ExportRequest{Format: models.ExportFormatCSV}, "chair")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, created.Status)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, created.ID, f.queue.jobs[0].ID)

	require.NoError(t, f.worker.Handle(ctx, jobs.Job{ID: created.ID, Attempt: 1}))

	status, err := f.jobs.GetStatus(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, status.Status)
	require.NotNil(t, status.ResultURL)
	require.NotNil(t, status.ExpiresAt)
	assert.Nil(t, status.Error)

	download, err := f.jobs.ResolveDownload(ctx, extractToken(*status.ResultURL))
	require.NoError(t, err)
	defer download.File.Close()
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Equal(t, "1,2\n1,2\n3,\n", string(body))
	assert.Equal(t, models.ExportFormatCSV, download.Format)
}

func TestExportJobRejectsUnknownRunAndFormat(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	_, err := f.jobs.CreateJob(ctx, "missing", dto.ExportRequest{Format: models.ExportFormatPDF}, "chair")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = f.jobs.CreateJob(ctx, f.run.ID, dto.ExportRequest{Format: "docx"}, "chair")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, f.queue.jobs)
}

func TestExportJobEnqueueFailureMarksJobFailed(t *testing.T) {
	f := newExportFixture(t)
	f.queue.err = errors.New("queue not running")

	_, err := f.jobs.CreateJob(context.Background(), f.run.ID, dto.ExportRequest{Format: models.ExportFormatYAML}, "chair")
	require.Error(t, err)

	require.Len(t, f.store.jobs, 1)
	for _, job := range f.store.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
		require.NotNil(t, job.ErrorMessage)
	}
}

func TestExportWorkerRetriesThenFails(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()
	worker := NewExportWorker(f.store, failingRunLoader{}, f.exporter, 2, nil)

	job := &models.ExportJob{RunID: f.run.ID, Format: models.ExportFormatCSV, Status: models.ExportStatusQueued}
	require.NoError(t, f.store.Create(ctx, job))

	require.Error(t, worker.Handle(ctx, jobs.Job{ID: job.ID, Attempt: 1}))
	record, err := f.store.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, record.Status)
	require.NotNil(t, record.ErrorMessage)

	require.Error(t, worker.Handle(ctx, jobs.Job{ID: job.ID, Attempt: 2}))
	record, err = f.store.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFailed, record.Status)
	assert.NotNil(t, record.FinishedAt)
}

func TestExportDownloadRejectsTamperedToken(t *testing.T) {
	f := newExportFixture(t)
	_, err := f.jobs.ResolveDownload(context.Background(), "not-a-token")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestExportCleanupForgetsExpiredJobs(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	created, err := f.jobs.CreateJob(ctx, f.run.ID, dto.ExportRequest{Format: models.ExportFormatCSV, Detail: true}, "chair")
	require.NoError(t, err)
	require.NoError(t, f.worker.Handle(ctx, jobs.Job{ID: created.ID, Attempt: 1}))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, f.store.Update(ctx, created.ID, UpdateExportJobParams{FinishedAt: &old}))

	f.jobs.CleanupExpired(ctx)
	_, err = f.store.GetByID(ctx, created.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestExportServiceRendersEveryFormat(t *testing.T) {
	f := newExportFixture(t)
	for _, format := range []models.ExportFormat{models.ExportFormatCSV, models.ExportFormatPDF, models.ExportFormatYAML} {
		artifact, err := f.exporter.Render(f.run, format, false)
		require.NoError(t, err, format)
		assert.NotEmpty(t, artifact.Data)
		assert.Equal(t, format.ContentType(), artifact.ContentType)
	}

	yamlDoc, err := f.exporter.Render(f.run, models.ExportFormatYAML, true)
	require.NoError(t, err)
	assert.Contains(t, string(yamlDoc.Data), "PC discussion schedule: pc meeting")
	assert.Contains(t, string(yamlDoc.Data), "Hash: ")
}

func TestExportServiceRenderEmptyRunKeepsSlotHeader(t *testing.T) {
	f := newExportFixture(t)
	empty := &dto.ScheduleRunResponse{ID: "run-empty", Settings: dto.ScheduleSettings{SlotCount: 3}}
	artifact, err := f.exporter.Render(empty, models.ExportFormatCSV, false)
	require.NoError(t, err)
	assert.Equal(t, "1,2,3\n", string(artifact.Data))
}
