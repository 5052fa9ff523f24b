package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dkenzhe/videosub/pkg/file"
	"github.com/dkenzhe/videosub/pkg/log"
)

// ErrJobActive is returned when a submission arrives while a job is still
// pending or running. The design allows exactly one active job; concurrent
// submissions are rejected instead of silently overwriting the live status.
var ErrJobActive = errors.New("a job is already being processed")

// ErrNoActiveJob is returned when cancellation is requested while idle.
var ErrNoActiveJob = errors.New("no job is being processed")

type Executor func(ctx context.Context, job *Job) error

// Runner dispatches one background worker goroutine per accepted job. The
// submitting caller returns immediately; the worker runs the pipeline to
// completion, failure, or cancellation.
type Runner struct {
	exec Executor

	mu      sync.Mutex
	current *Job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewRunner(exec Executor) *Runner {
	return &Runner{exec: exec}
}

// Submit accepts a video for processing and starts the background worker.
// It rejects the request with ErrJobActive while another job is live.
func (r *Runner) Submit(videoPath string) (*Job, error) {
	r.mu.Lock()
	if r.current != nil && !r.current.Status.Terminal() {
		snapshot := cloneJob(r.current)
		r.mu.Unlock()
		log.Warn("Rejecting submission of %s: job %s is still %s", videoPath, snapshot.ID, snapshot.Status)
		return nil, ErrJobActive
	}

	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		VideoPath: videoPath,
		BaseName:  file.BaseName(videoPath),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.current = job
	r.cancel = cancel
	snapshot := cloneJob(job)
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(ctx, job.ID)

	return snapshot, nil
}

// Current returns a snapshot of the most recent job, live or finished.
func (r *Runner) Current() (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil, false
	}
	return cloneJob(r.current), true
}

// Cancel signals the active job's context. The worker notices between
// pipeline steps; already-started external calls still run to completion.
func (r *Runner) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil || r.current.Status.Terminal() || r.cancel == nil {
		return ErrNoActiveJob
	}
	log.Info("Cancelling job %s", r.current.ID)
	r.cancel()
	return nil
}

// Wait blocks until the active worker (if any) has exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, id string) {
	defer r.wg.Done()

	job, ok := r.markRunning(id)
	if !ok {
		return
	}

	if err := r.exec(ctx, job); err != nil {
		log.Error("Job %s failed: %v", id, err)
		r.markFailed(id, err)
		return
	}
	r.markSuccess(id)
}

func (r *Runner) markRunning(id string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil || r.current.ID != id || r.current.Status != StatusPending {
		return nil, false
	}
	r.current.Status = StatusRunning
	r.current.UpdatedAt = time.Now()
	return cloneJob(r.current), true
}

func (r *Runner) markSuccess(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil || r.current.ID != id {
		return
	}
	r.current.Status = StatusSuccess
	r.current.Error = ""
	r.current.UpdatedAt = time.Now()
	r.cancel = nil
}

func (r *Runner) markFailed(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil || r.current.ID != id {
		return
	}
	r.current.Status = StatusFailed
	if err != nil {
		r.current.Error = err.Error()
	}
	r.current.UpdatedAt = time.Now()
	r.cancel = nil
}

func cloneJob(job *Job) *Job {
	if job == nil {
		return nil
	}
	tmp := *job
	return &tmp
}
