package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"autoname/internal/fileutil"
	"autoname/internal/history"
	"autoname/internal/logging"
	"autoname/internal/naming"
	"autoname/internal/queue"
	"autoname/internal/services"
	"autoname/internal/services/sypht"
	"autoname/internal/supplier"
)

// DefaultTakeTimeout bounds each wait for a job so the loop notices Stop.
const DefaultTakeTimeout = time.Second

// Taker yields queued jobs.
type Taker interface {
	Take(timeout time.Duration) (queue.Job, bool)
}

// Fetcher retrieves extraction results for a job handle.
type Fetcher interface {
	FetchResults(ctx context.Context, handle string) (sypht.Results, error)
}

// NameResolver maps a supplier ABN to its registered name.
type NameResolver interface {
	Resolve(ctx context.Context, abn string) (string, error)
}

// Recorder journals job outcomes.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) (int64, error)
}

// Worker is the pipeline's single consumer. It takes one job at a time,
// fetches its extraction results, and moves the document to its allocated
// name in the output directory.
type Worker struct {
	queue       Taker
	fetcher     Fetcher
	resolver    NameResolver
	allocator   *naming.Allocator
	move        func(src, dst string) error
	recorder    Recorder
	logger      *slog.Logger
	takeTimeout time.Duration

	mu      sync.RWMutex
	running bool
	wg      sync.WaitGroup
	stats   Stats
}

// Option customizes a Worker.
type Option func(*Worker)

// WithRecorder journals every processed job.
func WithRecorder(recorder Recorder) Option {
	return func(w *Worker) {
		w.recorder = recorder
	}
}

// WithTakeTimeout overrides DefaultTakeTimeout.
func WithTakeTimeout(timeout time.Duration) Option {
	return func(w *Worker) {
		if timeout > 0 {
			w.takeTimeout = timeout
		}
	}
}

// WithMoveFunc overrides how documents are moved (used in tests).
func WithMoveFunc(move func(src, dst string) error) Option {
	return func(w *Worker) {
		if move != nil {
			w.move = move
		}
	}
}

// NewWorker constructs a worker.
func NewWorker(q Taker, fetcher Fetcher, resolver NameResolver, allocator *naming.Allocator, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		queue:       q,
		fetcher:     fetcher,
		resolver:    resolver,
		allocator:   allocator,
		move:        fileutil.Move,
		logger:      logging.NewComponentLogger(logger, "worker"),
		takeTimeout: DefaultTakeTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start runs the loop on its own goroutine.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("worker already running")
	}
	w.running = true
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
	w.logger.Info("worker started", logging.Duration("take_timeout", w.takeTimeout))
	return nil
}

// Stop clears the running flag and waits for the loop to exit. A job in
// progress is finished first; otherwise the wait is at most one take timeout.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("worker stopped")
}

// Running reports whether the loop is active.
func (w *Worker) Running() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Worker) run(ctx context.Context) {
	for w.Running() && ctx.Err() == nil {
		job, ok := w.queue.Take(w.takeTimeout)
		if !ok {
			continue
		}
		w.safeProcess(context.WithoutCancel(ctx), job)
	}
}

func (w *Worker) safeProcess(ctx context.Context, job queue.Job) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			logging.ErrorWithContext(w.logger, "unexpected error processing job", "worker_panic",
				logging.String(logging.FieldJobHandle, job.Handle),
				logging.String(logging.FieldSource, job.SourcePath),
				logging.Error(err),
			)
			w.finish(ctx, job, Result{Status: history.StatusFailed, Err: err})
		}
	}()
	result := w.Process(ctx, job)
	w.finish(ctx, job, result)
}

// Result describes how one job ended.
type Result struct {
	Status      history.Status
	Destination string
	Supplier    string
	Date        string
	Err         error
}

// Process handles one job end to end: fetch results, check the date and
// supplier fields, resolve and normalize the supplier name, allocate a
// destination, and move the document. Abandoned jobs leave the source file
// where it is.
func (w *Worker) Process(ctx context.Context, job queue.Job) Result {
	ctx = services.WithJobHandle(ctx, job.Handle)
	ctx = services.WithSource(ctx, job.SourcePath)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, w.logger)

	results, err := w.fetcher.FetchResults(ctx, job.Handle)
	if err != nil {
		logging.ErrorWithContext(logger, "could not fetch extraction results", "extraction_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check sypht credentials and connectivity"),
		)
		return Result{Status: services.FailureStatus(err), Err: err}
	}

	date, ok := results.Date()
	if !ok {
		err := services.Wrap(services.ErrValidation, "worker", "date", "document has no date", nil)
		logging.WarnWithContext(logger, "could not obtain date from document, skipping", "missing_date",
			logging.String(logging.FieldErrorHint, "rename the document manually"),
		)
		return Result{Status: history.StatusSkipped, Err: err}
	}
	abn, ok := results.SupplierABN()
	if !ok {
		err := services.Wrap(services.ErrValidation, "worker", "supplier", "document has no supplier ABN", nil)
		logging.WarnWithContext(logger, "could not obtain ABN from document, skipping", "missing_supplier_abn",
			logging.String("document_date", date),
			logging.String(logging.FieldErrorHint, "rename the document manually"),
		)
		return Result{Status: history.StatusSkipped, Date: date, Err: err}
	}
	logger.Info("extracted document fields",
		logging.String("document_date", date),
		logging.String(logging.FieldABN, abn),
	)

	name, err := w.resolver.Resolve(ctx, abn)
	if err != nil {
		logging.WarnWithContext(logger, "could not obtain supplier name, skipping", "supplier_unresolved",
			logging.String(logging.FieldABN, abn),
			logging.Error(err),
		)
		return Result{Status: services.FailureStatus(err), Date: date, Err: err}
	}
	name = supplier.StripCorporateSuffixes(name)
	logger.Info("supplier name", logging.String("supplier", name))

	dest, err := w.allocator.Allocate(date, name, filepath.Ext(job.SourcePath))
	if err != nil {
		logging.ErrorWithContext(logger, "could not allocate destination filename", "allocate_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check output directory permissions"),
		)
		return Result{Status: history.StatusFailed, Supplier: name, Date: date, Err: err}
	}

	logger.Info("moving document", logging.String(logging.FieldDestination, dest))
	if err := w.move(job.SourcePath, dest); err != nil {
		logging.ErrorWithContext(logger, "could not move document", "move_failed",
			logging.String(logging.FieldDestination, dest),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check input and output directory permissions"),
		)
		return Result{Status: history.StatusFailed, Supplier: name, Date: date, Err: err}
	}
	return Result{Status: history.StatusRenamed, Destination: dest, Supplier: name, Date: date}
}

func (w *Worker) finish(ctx context.Context, job queue.Job, result Result) {
	w.mu.Lock()
	w.stats.record(result)
	w.mu.Unlock()

	if w.recorder == nil {
		return
	}
	entry := history.Entry{
		Source:       job.SourcePath,
		Destination:  result.Destination,
		JobHandle:    job.Handle,
		Supplier:     result.Supplier,
		DocumentDate: result.Date,
		Status:       result.Status,
	}
	if result.Err != nil {
		entry.Detail = result.Err.Error()
	}
	if _, err := w.recorder.Record(ctx, entry); err != nil {
		w.logger.Warn("history record failed",
			logging.String(logging.FieldJobHandle, job.Handle),
			logging.Error(err),
		)
	}
}
