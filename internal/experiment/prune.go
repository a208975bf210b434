package experiment

import (
	"context"
	"time"

	"imgvault/internal/logging"
	"imgvault/internal/orphans"
	"imgvault/internal/services"
)

// PruneResult lists archive directories without a catalog record and, unless
// the pass was a dry run, which of them were removed.
type PruneResult struct {
	Orphans []orphans.Dir
	Removed orphans.Result
	DryRun  bool
}

// Orphans lists archive directories that no catalog record refers to.
// Directories younger than minAge are ignored.
func (s *Service) Orphans(ctx context.Context, minAge time.Duration) ([]orphans.Dir, error) {
	records, err := s.catalog.SelectAll(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(records))
	for _, rec := range records {
		known[rec.Name] = struct{}{}
	}
	dirs, err := orphans.Find(s.cfg.Paths.ArchiveRoot, known, minAge, time.Now())
	if err != nil {
		return nil, services.Wrap(services.ErrStorageUnavailable, "experiment", "list orphans", s.cfg.Paths.ArchiveRoot, err)
	}
	return dirs, nil
}

// Prune removes orphaned archive directories under the instance lock.
func (s *Service) Prune(ctx context.Context, minAge time.Duration, dryRun bool) (PruneResult, error) {
	result := PruneResult{DryRun: dryRun}
	release, err := s.Lock()
	if err != nil {
		return result, err
	}
	defer release()

	dirs, err := s.Orphans(ctx, minAge)
	if err != nil {
		return result, err
	}
	result.Orphans = dirs
	if dryRun || len(dirs) == 0 {
		return result, nil
	}
	result.Removed = orphans.Remove(ctx, dirs, s.logger)
	s.logger.InfoContext(ctx, "prune complete",
		logging.Int("orphans", len(dirs)),
		logging.Int("removed", len(result.Removed.Removed)),
		logging.Int("failed", len(result.Removed.Errors)),
	)
	if len(result.Removed.Errors) > 0 {
		first := result.Removed.Errors[0]
		return result, services.Wrap(services.ErrStorageUnavailable, "experiment", "prune", first.Path, first.Error)
	}
	return result, nil
}
