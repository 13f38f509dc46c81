package daemon

import (
	"fmt"
	"log/slog"
	"net/http"

	"autoname/internal/config"
	"autoname/internal/history"
	"autoname/internal/intake"
	"autoname/internal/naming"
	"autoname/internal/queue"
	"autoname/internal/services/abr"
	"autoname/internal/services/sypht"
	"autoname/internal/supplier"
	"autoname/internal/watch"
	"autoname/internal/workflow"
)

// BuildOptions customizes component construction.
type BuildOptions struct {
	// HTTPClient, when set, is used by both service clients.
	HTTPClient *http.Client
	// WorkerOptions are appended after the defaults.
	WorkerOptions []workflow.Option
}

// BuildComponents constructs and wires every pipeline component for cfg.
// Client construction or history open failures are returned and are fatal to
// startup. On success the caller owns Components.History.
func BuildComponents(cfg *config.Config, logger *slog.Logger, opts BuildOptions) (Components, error) {
	if cfg == nil {
		return Components{}, fmt.Errorf("config is required")
	}

	var syphtOpts []sypht.Option
	var abrOpts []abr.Option
	if opts.HTTPClient != nil {
		syphtOpts = append(syphtOpts, sypht.WithHTTPClient(opts.HTTPClient))
		abrOpts = append(abrOpts, abr.WithHTTPClient(opts.HTTPClient))
	}
	syphtClient, err := sypht.NewClient(sypht.ConfigFrom(cfg), syphtOpts...)
	if err != nil {
		return Components{}, fmt.Errorf("create sypht client: %w", err)
	}
	abrClient, err := abr.NewClient(abr.ConfigFrom(cfg), abrOpts...)
	if err != nil {
		return Components{}, fmt.Errorf("create abr client: %w", err)
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.HistoryPath())
		if err != nil {
			return Components{}, fmt.Errorf("open history: %w", err)
		}
	}

	q := queue.New(cfg.Intake.QueueCapacity, logger)

	var intakeOpts []intake.Option
	workerOpts := []workflow.Option{}
	if store != nil {
		intakeOpts = append(intakeOpts, intake.WithRecorder(store))
		workerOpts = append(workerOpts, workflow.WithRecorder(store))
	}
	workerOpts = append(workerOpts, opts.WorkerOptions...)

	in := intake.New(cfg.Intake.Extensions, syphtClient, q, logger, intakeOpts...)
	resolver := supplier.NewResolver(abrClient, logger)
	worker := workflow.NewWorker(q, syphtClient, resolver, naming.NewAllocator(cfg.Paths.OutputDir), logger, workerOpts...)
	watcher := watch.New(cfg.Paths.InputDir, in, logger)

	return Components{
		Intake:  in,
		Watcher: watcher,
		Worker:  worker,
		Queue:   q,
		History: store,
	}, nil
}

// NewResolver builds a standalone supplier resolver for one-off lookups.
func NewResolver(cfg *config.Config, logger *slog.Logger) (*supplier.Resolver, error) {
	client, err := abr.NewClient(abr.ConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("create abr client: %w", err)
	}
	return supplier.NewResolver(client, logger), nil
}
