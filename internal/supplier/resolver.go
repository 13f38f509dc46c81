package supplier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"autoname/internal/logging"
	"autoname/internal/services"
	"autoname/internal/services/abr"
)

// ErrLookupFailed marks any resolution that produced no name: a
// service-reported exception, a malformed response, or a transport failure.
var ErrLookupFailed = errors.New("supplier lookup failed")

// Lookup is the registry query the resolver depends on.
type Lookup interface {
	SearchByABN(ctx context.Context, abn string) (abr.Response, error)
}

// Resolver maps supplier ABNs to display names and caches every successful
// resolution for the lifetime of the process. Failures are never cached.
type Resolver struct {
	lookup Lookup
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver constructs a resolver backed by lookup.
func NewResolver(lookup Lookup, logger *slog.Logger) *Resolver {
	return &Resolver{
		lookup: lookup,
		logger: logging.NewComponentLogger(logger, "supplier"),
		cache:  make(map[string]string),
	}
}

// Resolve returns the registered name for abn. The trading name wins over the
// entity's main name. The returned name is not suffix-stripped.
func (r *Resolver) Resolve(ctx context.Context, abn string) (string, error) {
	key := abr.NormalizeABN(abn)
	if key == "" {
		return "", fmt.Errorf("%w: %w", ErrLookupFailed,
			services.Wrap(services.ErrValidation, "supplier", "resolve", "empty abn", nil))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if name, ok := r.cache[key]; ok {
		r.logger.Debug("supplier name cache hit", logging.String(logging.FieldABN, key))
		return name, nil
	}
	if r.lookup == nil {
		return "", fmt.Errorf("%w: %w", ErrLookupFailed,
			services.Wrap(services.ErrConfiguration, "supplier", "resolve", "no registry client", nil))
	}

	resp, err := r.lookup.SearchByABN(ctx, key)
	if err != nil {
		logging.WarnWithContext(r.logger, "could not look up ABN", "abr_request_failed",
			logging.String(logging.FieldABN, key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access and abr.guid"),
		)
		return "", fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	if resp.Exception != nil {
		logging.WarnWithContext(r.logger, "could not look up ABN, registry reported an exception", "abr_exception",
			logging.String(logging.FieldABN, key),
			logging.String("exception", resp.Exception.Description),
			logging.String(logging.FieldErrorHint, "verify the ABN extracted from the document"),
		)
		return "", fmt.Errorf("%w: %w", ErrLookupFailed,
			services.Wrap(services.ErrNotFound, "supplier", "resolve", resp.Exception.Description, nil))
	}

	name, ok := resp.BusinessEntity.TradingName()
	if !ok {
		name, ok = resp.BusinessEntity.EntityName()
	}
	if !ok {
		logging.WarnWithContext(r.logger, "could not parse registry response", "abr_malformed_response",
			logging.String(logging.FieldABN, key),
			logging.Bool("has_entity", resp.BusinessEntity != nil),
		)
		return "", fmt.Errorf("%w: %w", ErrLookupFailed,
			services.Wrap(services.ErrNotFound, "supplier", "resolve", "response has no organisation name", nil))
	}

	r.cache[key] = name
	r.logger.Debug("supplier name resolved", logging.String(logging.FieldABN, key), logging.String("name", name))
	return name, nil
}

// Cached reports the number of cached resolutions.
func (r *Resolver) Cached() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}
