package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan Job, 1)
	q := NewQueue("exports", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("storage busy")
		}
		done <- job
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "schedule_export"}))

	select {
	case job := <-done:
		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, 2, job.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried to completion")
	}
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("exports", func(context.Context, Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "job-1"})
	require.Error(t, err)
	assert.Equal(t, 0, q.Pending())
	assert.Equal(t, "exports", q.Name())
}

func TestQueueBackoffGrowsLinearlyAndCaps(t *testing.T) {
	q := NewQueue("exports", func(context.Context, Job) error { return nil }, QueueConfig{
		RetryDelay:    10 * time.Millisecond,
		MaxRetryDelay: 25 * time.Millisecond,
	})

	assert.Equal(t, 10*time.Millisecond, q.backoff(0))
	assert.Equal(t, 10*time.Millisecond, q.backoff(1))
	assert.Equal(t, 20*time.Millisecond, q.backoff(2))
	assert.Equal(t, 25*time.Millisecond, q.backoff(3))
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	q := NewQueue("exports", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("renderer down")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()
	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 3 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
