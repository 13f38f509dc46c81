package preflight

import (
	"context"

	"autoname/internal/config"
	"autoname/internal/services/abr"
	"autoname/internal/services/sypht"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem and service checks for cfg. Service checks
// make real network calls.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := CheckDirectories(cfg)

	var syphtClient Authenticator
	if c, err := sypht.NewClient(sypht.ConfigFrom(cfg)); err == nil {
		syphtClient = c
	}
	results = append(results, CheckSypht(ctx, syphtClient))

	var abrClient Searcher
	if c, err := abr.NewClient(abr.ConfigFrom(cfg)); err == nil {
		abrClient = c
	}
	results = append(results, CheckABR(ctx, abrClient))
	return results
}

// CheckDirectories runs only the local checks.
func CheckDirectories(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Input directory", cfg.Paths.InputDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if results[0].Passed && results[1].Passed {
		results = append(results, CheckSameFilesystem(cfg.Paths.InputDir, cfg.Paths.OutputDir))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
