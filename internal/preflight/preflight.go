package preflight

import (
	"context"
	"path/filepath"

	"imgvault/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks and, when enabled, the labeler check.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Archive root", cfg.Paths.ArchiveRoot),
		CheckCreatable("Output root", cfg.Paths.OutputRoot),
		CheckDirectoryAccess("Catalog directory", filepath.Dir(cfg.Paths.CatalogPath)),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.LabelerReady() {
		results = append(results, CheckLabeler(ctx, cfg.GetLabeler()))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
