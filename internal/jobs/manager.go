package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vrsandeep/tvguide/internal/models"
)

// ErrJobNotFound is returned for names that were never registered.
var ErrJobNotFound = errors.New("job not found")

// Task is the body of a job. days is the look-ahead or retention window
// for jobs that take one and is ignored by the others. The returned
// string becomes the job's status message.
type Task func(ctx context.Context, days int) (string, error)

// Broadcaster receives status changes, normally the websocket hub.
type Broadcaster interface {
	BroadcastJSON(v any)
}

type JobStatus struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"` // "idle", "running", "success", "failed"
	Running   int       `json:"running"`
	Message   string    `json:"message"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
}

type job struct {
	task   Task
	status JobStatus
}

// JobManager runs registered jobs and tracks their status. It does not
// serialise runs: a job may be started while another run of it, scheduled
// or manual, is still going.
type JobManager struct {
	mu    sync.Mutex
	jobs  map[string]*job
	order []string
	hub   Broadcaster
	wg    sync.WaitGroup

	// base is the context detached runs inherit.
	base   context.Context
	cancel context.CancelFunc
}

func NewManager(hub Broadcaster) *JobManager {
	base, cancel := context.WithCancel(context.Background())
	return &JobManager{
		jobs:   make(map[string]*job),
		hub:    hub,
		base:   base,
		cancel: cancel,
	}
}

func (jm *JobManager) Register(id, name string, task Task) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	if _, exists := jm.jobs[id]; !exists {
		jm.order = append(jm.order, id)
	}
	jm.jobs[id] = &job{task: task, status: JobStatus{ID: id, Name: name, Status: "idle"}}
}

// Run executes a job in the calling goroutine and returns its error.
func (jm *JobManager) Run(ctx context.Context, id string, days int) error {
	j, err := jm.begin(id)
	if err != nil {
		return err
	}
	return jm.execute(ctx, id, j, days)
}

// Start launches a job in the background and returns immediately.
// Detached runs are cancelled by Shutdown.
func (jm *JobManager) Start(id string, days int) error {
	j, err := jm.begin(id)
	if err != nil {
		return err
	}
	jm.wg.Add(1)
	go func() {
		defer jm.wg.Done()
		if err := jm.execute(jm.base, id, j, days); err != nil {
			log.WithError(err).WithField("job", id).Warn("background job failed")
		}
	}()
	return nil
}

func (jm *JobManager) begin(id string) (*job, error) {
	jm.mu.Lock()
	j, ok := jm.jobs[id]
	if !ok {
		jm.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrJobNotFound, id)
	}
	j.status.Running++
	j.status.Status = "running"
	j.status.StartTime = time.Now()
	j.status.Message = "Job started..."
	jm.mu.Unlock()

	jm.broadcast(id, "Job started...", "running", false)
	return j, nil
}

func (jm *JobManager) execute(ctx context.Context, id string, j *job, days int) (err error) {
	logger := log.WithField("job", id)
	logger.Info("starting job")

	var message string
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("job panicked: %v", r)
			err = fmt.Errorf("job %q panicked: %v", id, r)
			message = fmt.Sprintf("Job panicked: %v", r)
		}

		status := "success"
		if err != nil {
			status = "failed"
			if message == "" {
				message = err.Error()
			}
		}

		jm.mu.Lock()
		j.status.Running--
		j.status.EndTime = time.Now()
		j.status.Status = status
		j.status.Message = message
		if j.status.Running > 0 {
			j.status.Status = "running"
		}
		jm.mu.Unlock()

		jm.broadcast(id, message, status, true)
		logger.WithField("status", status).Info("finished job")
	}()

	message, err = j.task(ctx, days)
	return err
}

func (jm *JobManager) broadcast(id, message, status string, done bool) {
	if jm.hub == nil {
		return
	}
	jm.hub.BroadcastJSON(models.ProgressUpdate{JobID: id, Message: message, Status: status, Done: done})
}

// GetStatus returns a snapshot of every job in registration order.
func (jm *JobManager) GetStatus() []JobStatus {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	statuses := make([]JobStatus, 0, len(jm.order))
	for _, id := range jm.order {
		statuses = append(statuses, jm.jobs[id].status)
	}
	return statuses
}

// Shutdown cancels detached runs and waits for them to return or for ctx
// to expire.
func (jm *JobManager) Shutdown(ctx context.Context) error {
	jm.cancel()
	done := make(chan struct{})
	go func() {
		jm.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
