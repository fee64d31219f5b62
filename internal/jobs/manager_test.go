package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/tvguide/internal/jobs"
	"github.com/vrsandeep/tvguide/internal/models"
)

type recordingHub struct {
	mu      sync.Mutex
	updates []models.ProgressUpdate
}

func (h *recordingHub) BroadcastJSON(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, v.(models.ProgressUpdate))
}

func (h *recordingHub) snapshot() []models.ProgressUpdate {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.ProgressUpdate(nil), h.updates...)
}

func statusOf(t *testing.T, mgr *jobs.JobManager, id string) jobs.JobStatus {
	t.Helper()
	for _, s := range mgr.GetStatus() {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("job %s not registered", id)
	return jobs.JobStatus{}
}

func TestManager_RegisterAndGetStatus(t *testing.T) {
	mgr := jobs.NewManager(nil)
	assert.Empty(t, mgr.GetStatus())

	noop := func(context.Context, int) (string, error) { return "", nil }
	mgr.Register("jobB", "Job B", noop)
	mgr.Register("jobA", "Job A", noop)

	statuses := mgr.GetStatus()
	require.Len(t, statuses, 2)
	assert.Equal(t, "jobB", statuses[0].ID, "registration order is kept")
	assert.Equal(t, "idle", statuses[1].Status)
}

func TestManager_RunIsSynchronous(t *testing.T) {
	hub := &recordingHub{}
	mgr := jobs.NewManager(hub)
	var gotDays int
	mgr.Register("jobX", "Job X", func(_ context.Context, days int) (string, error) {
		gotDays = days
		return "did it", nil
	})

	require.NoError(t, mgr.Run(context.Background(), "jobX", 7))
	assert.Equal(t, 7, gotDays)

	s := statusOf(t, mgr, "jobX")
	assert.Equal(t, "success", s.Status)
	assert.Equal(t, "did it", s.Message)
	assert.Zero(t, s.Running)
	assert.False(t, s.EndTime.Before(s.StartTime))

	updates := hub.snapshot()
	require.Len(t, updates, 2)
	assert.False(t, updates[0].Done)
	assert.True(t, updates[1].Done)
	assert.Equal(t, "success", updates[1].Status)
}

func TestManager_RunReportsFailure(t *testing.T) {
	mgr := jobs.NewManager(nil)
	mgr.Register("bad", "Bad", func(context.Context, int) (string, error) {
		return "", errors.New("source unreachable")
	})

	err := mgr.Run(context.Background(), "bad", 0)
	assert.EqualError(t, err, "source unreachable")

	s := statusOf(t, mgr, "bad")
	assert.Equal(t, "failed", s.Status)
	assert.Equal(t, "source unreachable", s.Message)
}

func TestManager_NotFound(t *testing.T) {
	mgr := jobs.NewManager(nil)
	assert.ErrorIs(t, mgr.Run(context.Background(), "nojob", 0), jobs.ErrJobNotFound)
	assert.ErrorIs(t, mgr.Start("nojob", 0), jobs.ErrJobNotFound)
}

func TestManager_Panic(t *testing.T) {
	mgr := jobs.NewManager(nil)
	mgr.Register("panicJob", "Panic Job", func(context.Context, int) (string, error) { panic("fail") })

	err := mgr.Run(context.Background(), "panicJob", 0)
	require.Error(t, err)

	s := statusOf(t, mgr, "panicJob")
	assert.Equal(t, "failed", s.Status)
	assert.Contains(t, s.Message, "panicked")
}

func TestManager_StartIsDetached(t *testing.T) {
	mgr := jobs.NewManager(nil)
	block := make(chan struct{})
	mgr.Register("jobY", "Job Y", func(context.Context, int) (string, error) {
		<-block
		return "", nil
	})

	require.NoError(t, mgr.Start("jobY", 0))
	assert.Equal(t, "running", statusOf(t, mgr, "jobY").Status)

	close(block)
	assert.Eventually(t, func() bool {
		return statusOf(t, mgr, "jobY").Status == "success"
	}, time.Second, 5*time.Millisecond)
}

func TestManager_RunsMayOverlap(t *testing.T) {
	mgr := jobs.NewManager(nil)
	block := make(chan struct{})
	var mu sync.Mutex
	count := 0
	mgr.Register("jobC", "Job C", func(context.Context, int) (string, error) {
		mu.Lock()
		count++
		mu.Unlock()
		<-block
		return "", nil
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, mgr.Start("jobC", 0))
	}
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, statusOf(t, mgr, "jobC").Running)

	close(block)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, mgr.Shutdown(ctx))
	s := statusOf(t, mgr, "jobC")
	assert.Zero(t, s.Running)
	assert.Equal(t, "success", s.Status)
}

func TestManager_ShutdownCancelsDetachedRuns(t *testing.T) {
	mgr := jobs.NewManager(nil)
	mgr.Register("long", "Long", func(ctx context.Context, _ int) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	require.NoError(t, mgr.Start("long", 0))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, mgr.Shutdown(ctx))
	assert.Equal(t, "failed", statusOf(t, mgr, "long").Status)
}
