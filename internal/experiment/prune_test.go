package experiment_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"imgvault/internal/experiment"
)

func TestPruneRemovesOnlyOrphans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.Insert(ctx, experiment.InsertRequest{Name: "kept", Author: "ada", SourceDir: f.source, Decide: emptyDecision()}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	orphan := filepath.Join(f.cfg.Paths.ArchiveRoot, "leftover")
	if err := os.MkdirAll(orphan, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	dry, err := f.service.Prune(ctx, 0, true)
	if err != nil {
		t.Fatalf("Prune dry run: %v", err)
	}
	if len(dry.Orphans) != 1 || dry.Orphans[0].Path != orphan || len(dry.Removed.Removed) != 0 {
		t.Fatalf("unexpected dry run result %+v", dry)
	}
	if _, err := os.Stat(orphan); err != nil {
		t.Fatalf("dry run removed the orphan: %v", err)
	}

	res, err := f.service.Prune(ctx, 0, false)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(res.Removed.Removed) != 1 {
		t.Fatalf("unexpected prune result %+v", res)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Fatalf("orphan still present: %v", err)
	}
	if _, err := os.Stat(f.cfg.ArchivePath("kept")); err != nil {
		t.Fatalf("catalogued archive removed: %v", err)
	}
}
