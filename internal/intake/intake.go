package intake

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"autoname/internal/config"
	"autoname/internal/history"
	"autoname/internal/logging"
	"autoname/internal/queue"
	"autoname/internal/services"
	"autoname/internal/watch"
)

// Uploader submits a document for extraction and returns its job handle.
type Uploader interface {
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}

// Submitter accepts jobs for the worker.
type Submitter interface {
	Submit(ctx context.Context, job queue.Job) error
}

// Recorder journals documents that never reach the worker.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) (int64, error)
}

// Intake turns file creation events into queued extraction jobs.
type Intake struct {
	extensions []string
	uploader   Uploader
	queue      Submitter
	recorder   Recorder
	logger     *slog.Logger
}

// Option customizes an Intake.
type Option func(*Intake)

// WithRecorder journals intake failures.
func WithRecorder(recorder Recorder) Option {
	return func(i *Intake) {
		i.recorder = recorder
	}
}

// New constructs an Intake accepting the given extensions (".pdf", "PDF", and
// "pdf" are equivalent).
func New(extensions []string, uploader Uploader, q Submitter, logger *slog.Logger, opts ...Option) *Intake {
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		if ext = config.NormalizeExt(ext); ext != "" {
			normalized = append(normalized, ext)
		}
	}
	in := &Intake{
		extensions: normalized,
		uploader:   uploader,
		queue:      q,
		logger:     logging.NewComponentLogger(logger, "intake"),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

var _ watch.Handler = (*Intake)(nil)

// Created handles one file creation event. Errors are logged and the event is
// dropped; nothing is returned to the caller and panics are recovered so the
// watcher keeps delivering subsequent events.
func (in *Intake) Created(ctx context.Context, ev watch.Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(in.logger, "intake panic recovered", "intake_panic",
				logging.String(logging.FieldSource, ev.Path),
				logging.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	in.handle(ctx, ev.Path)
}

// HandleCreated is Created for callers that only have a path.
func (in *Intake) HandleCreated(ctx context.Context, path string) {
	in.Created(ctx, watch.Event{Path: path, At: time.Now()})
}

func (in *Intake) handle(ctx context.Context, path string) {
	in.logger.Info("received create event", logging.String(logging.FieldSource, path))

	info, err := os.Stat(path)
	if err != nil {
		in.logger.Info("skipping vanished file", logging.String(logging.FieldSource, path), logging.Error(err))
		return
	}
	if info.IsDir() || !in.Accepts(path) {
		in.logger.Info("skipping", logging.String(logging.FieldSource, path), logging.Bool("dir", info.IsDir()))
		return
	}

	// An upload in flight finishes on shutdown; the submit below does not wait
	// for a slot once ctx is done, so a full queue cannot stall Stop.
	uploadCtx := context.WithoutCancel(ctx)

	handle, err := in.upload(uploadCtx, path)
	if err != nil {
		in.drop(uploadCtx, path, err)
		return
	}
	in.logger.Info("sent to extraction service",
		logging.String(logging.FieldSource, filepath.Base(path)),
		logging.String(logging.FieldJobHandle, handle),
	)

	if err := in.queue.Submit(ctx, queue.Job{Handle: handle, SourcePath: path}); err != nil {
		in.drop(uploadCtx, path, services.Wrap(services.ErrTransient, "intake", "enqueue", "queue rejected job", err))
		return
	}
	in.logger.Debug("job queued",
		logging.String(logging.FieldJobHandle, handle),
		logging.String(logging.FieldSource, path),
	)
}

func (in *Intake) upload(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "intake", "open", "could not open document", err)
	}
	defer file.Close()
	return in.uploader.Upload(ctx, filepath.Base(path), file)
}

func (in *Intake) drop(ctx context.Context, path string, err error) {
	logging.ErrorWithContext(in.logger, "could not process document", "intake_failed",
		logging.String(logging.FieldSource, path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "re-drop the file into the input directory to retry"),
	)
	if in.recorder == nil {
		return
	}
	if _, recErr := in.recorder.Record(ctx, history.Entry{
		Source: path,
		Status: history.StatusFailed,
		Detail: "intake: " + err.Error(),
	}); recErr != nil {
		in.logger.Warn("history record failed", logging.Error(recErr))
	}
}

// Accepts reports whether path has an accepted extension.
func (in *Intake) Accepts(path string) bool {
	ext := config.NormalizeExt(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, allowed := range in.extensions {
		if allowed == ext {
			return true
		}
	}
	return false
}

// ScanExisting delivers every regular file already in dir through Created,
// in name order, and returns how many entries were delivered.
func (in *Intake) ScanExisting(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	delivered := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		if entry.IsDir() {
			continue
		}
		in.HandleCreated(ctx, filepath.Join(dir, entry.Name()))
		delivered++
	}
	return delivered, nil
}
