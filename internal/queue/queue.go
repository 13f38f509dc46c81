package queue

import (
	"context"
	"log/slog"
	"time"

	"autoname/internal/logging"
)

// DefaultCapacity is the queue size used when none is configured.
const DefaultCapacity = 100

// Job is one uploaded document awaiting its extraction results.
type Job struct {
	Handle      string
	SourcePath  string
	SubmittedAt time.Time
}

// Queue is a bounded FIFO of jobs. Any number of goroutines may Submit; one
// worker is expected to Take.
type Queue struct {
	ch     chan Job
	logger *slog.Logger
}

// New constructs a queue holding at most capacity jobs. A non-positive
// capacity uses DefaultCapacity.
func New(capacity int, logger *slog.Logger) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		ch:     make(chan Job, capacity),
		logger: logging.NewComponentLogger(logger, "queue"),
	}
}

// Submit enqueues job, blocking while the queue is full. It only gives up
// when ctx is done; jobs are never dropped.
func (q *Queue) Submit(ctx context.Context, job Job) error {
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		return nil
	default:
	}

	q.logger.Warn("queue full, applying backpressure",
		logging.String(logging.FieldJobHandle, job.Handle),
		logging.Int("capacity", cap(q.ch)),
	)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Take waits up to timeout for a job. The boolean is false on timeout.
func (q *Queue) Take(timeout time.Duration) (Job, bool) {
	select {
	case job := <-q.ch:
		return job, true
	default:
	}
	if timeout <= 0 {
		return Job{}, false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case job := <-q.ch:
		return job, true
	case <-timer.C:
		return Job{}, false
	}
}

// Len returns the number of jobs waiting.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}
