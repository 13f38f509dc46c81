package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"autoname/internal/logging"
)

// Event describes a file that appeared in the watched directory.
type Event struct {
	Path string
	At   time.Time
}

// Handler receives creation events. Created is called synchronously on the
// watcher's delivery goroutine, one event at a time.
type Handler interface {
	Created(ctx context.Context, ev Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event)

// Created calls f(ctx, ev).
func (f HandlerFunc) Created(ctx context.Context, ev Event) { f(ctx, ev) }

// Watcher delivers fsnotify create events for one directory to a Handler.
type Watcher struct {
	dir     string
	handler Handler
	logger  *slog.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	wg      sync.WaitGroup
	running bool
}

// New constructs a watcher for dir. Call Start to begin delivery.
func New(dir string, handler Handler, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:     dir,
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "watcher"),
	}
}

// Start registers the directory and begins delivering events until Stop is
// called or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if w.handler == nil {
		return errors.New("watch: handler required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("watch: already running")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.fsw = fsw
	w.running = true
	w.wg.Add(1)
	go w.loop(ctx, fsw)

	w.logger.Info("watching directory", logging.String("dir", w.dir))
	return nil
}

// Stop closes the underlying watcher and waits for any in-flight handler
// call to return.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	fsw := w.fsw
	w.fsw = nil
	w.mu.Unlock()

	err := fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			w.handler.Created(ctx, Event{Path: ev.Name, At: time.Now()})
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(w.logger, "watcher error", "watcher_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some file events may have been missed"),
				logging.String(logging.FieldErrorHint, "re-drop affected files into the input directory"),
			)
		}
	}
}
