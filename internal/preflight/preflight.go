package preflight

import (
	"context"
	"fmt"

	"sdsscan/internal/config"
	"sdsscan/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckReadableDirectory("Documents directory", cfg.Paths.DocumentsDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	if cfg.StagingEnabled() {
		results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	}
	if cfg.Paths.OverridesPath != "" {
		results = append(results, CheckOverrides(cfg.Paths.OverridesPath))
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Detail:   statusDetail(status),
			Optional: status.Optional,
		})
	}
	results = append(results, CheckStore(ctx, cfg))
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}

func statusDetail(status deps.Status) string {
	switch {
	case !status.Available:
		return status.Detail
	case status.Detail != "":
		return fmt.Sprintf("%s (%s)", status.Path, status.Detail)
	default:
		return status.Path
	}
}
