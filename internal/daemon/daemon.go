package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"autoname/internal/config"
	"autoname/internal/history"
	"autoname/internal/intake"
	"autoname/internal/logging"
	"autoname/internal/preflight"
	"autoname/internal/queue"
	"autoname/internal/watch"
	"autoname/internal/workflow"
)

// Components are the pipeline pieces the daemon runs. History is optional.
type Components struct {
	Intake  *intake.Intake
	Watcher *watch.Watcher
	Worker  *workflow.Worker
	Queue   *queue.Queue
	History *history.Store
}

// Daemon coordinates the pipeline and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	parts  Components

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	scanWG  sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	Worker        workflow.Stats
	QueueLength   int
	QueueCapacity int
	InputDir      string
	OutputDir     string
	LockFilePath  string
	HistoryPath   string
}

// New constructs a daemon from already-wired components.
func New(cfg *config.Config, logger *slog.Logger, parts Components) (*Daemon, error) {
	if cfg == nil || parts.Intake == nil || parts.Watcher == nil || parts.Worker == nil || parts.Queue == nil {
		return nil, errors.New("daemon requires config, intake, watcher, worker, and queue")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		parts:    parts,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, checks directories, and launches the
// worker and the watcher. When intake.scan_existing is set, files already in
// the input directory are delivered in the background.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another autoname daemon instance is already running")
	}

	if failed := preflight.Failed(preflight.CheckDirectories(d.cfg)); len(failed) > 0 {
		_ = d.lock.Unlock()
		details := make([]string, 0, len(failed))
		for _, result := range failed {
			details = append(details, result.Name+": "+result.Detail)
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(details, "; "))
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.parts.Worker.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start worker: %w", err)
	}
	if err := d.parts.Watcher.Start(runCtx); err != nil {
		d.parts.Worker.Stop()
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start watcher: %w", err)
	}
	d.cancel = cancel
	d.running.Store(true)

	if d.cfg.Intake.ScanExisting {
		d.scanWG.Add(1)
		go func() {
			defer d.scanWG.Done()
			count, err := d.parts.Intake.ScanExisting(runCtx, d.cfg.Paths.InputDir)
			if err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Warn("initial scan failed", logging.Error(err))
				return
			}
			d.logger.Info("initial scan complete", logging.Int("files", count))
		}()
	}

	d.logger.Info("autoname daemon started",
		logging.String("lock", d.lockPath),
		logging.String("input_dir", d.cfg.Paths.InputDir),
		logging.String("output_dir", d.cfg.Paths.OutputDir),
	)
	return nil
}

// Stop shuts down the producer side first (scan, then watcher), then the
// worker, and releases the lock. Cancelling the run context releases any
// producer blocked on a full queue. Jobs still queued at that point are dropped;
// their files stay in the input directory.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.scanWG.Wait()
	if err := d.parts.Watcher.Stop(); err != nil {
		d.logger.Warn("failed to stop watcher", logging.Error(err))
	}
	d.parts.Worker.Stop()
	if pending := d.parts.Queue.Len(); pending > 0 {
		logging.WarnWithContext(d.logger, "queued jobs discarded at shutdown", "queue_discarded",
			logging.Int("pending", pending),
			logging.String(logging.FieldImpact, "documents left in the input directory"),
			logging.String(logging.FieldErrorHint, "enable intake.scan_existing or re-drop the files"),
		)
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("autoname daemon stopped")
}

// Close stops the daemon and releases the history journal.
func (d *Daemon) Close() error {
	d.Stop()
	if d.parts.History != nil {
		return d.parts.History.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:       d.running.Load(),
		Worker:        d.parts.Worker.Stats(),
		QueueLength:   d.parts.Queue.Len(),
		QueueCapacity: d.parts.Queue.Cap(),
		InputDir:      d.cfg.Paths.InputDir,
		OutputDir:     d.cfg.Paths.OutputDir,
		LockFilePath:  d.lockPath,
	}
	if d.parts.History != nil {
		status.HistoryPath = d.parts.History.Path()
	}
	return status
}
