package experiment_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"imgvault/internal/archive"
	"imgvault/internal/catalog"
	"imgvault/internal/config"
	"imgvault/internal/experiment"
	"imgvault/internal/metadata"
	"imgvault/internal/services"
	"imgvault/internal/testsupport"
)

type fixture struct {
	cfg     *config.Config
	store   *catalog.Store
	service *experiment.Service
	source  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	writer, err := archive.NewWriter(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	reader := archive.NewReader(cfg.Archive.SidecarName, nil)

	source := filepath.Join(testsupport.BaseDir(cfg), "raw")
	testsupport.WritePNG(t, filepath.Join(source, "a.png"), 4, 4)
	testsupport.WriteGrayPNG(t, filepath.Join(source, "b.png"), 2, 3)

	return fixture{
		cfg:     cfg,
		store:   store,
		service: experiment.New(cfg, store, writer, reader, nil),
		source:  source,
	}
}

func emptyDecision() archive.DecisionFunc {
	return archive.Fixed(metadata.Decision{Choice: metadata.ChoiceEmpty})
}

func TestInsertThenExtractScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.service.Insert(ctx, experiment.InsertRequest{Name: "exp1", Author: "ada", SourceDir: f.source, Decide: emptyDecision()})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if res.Record.Name != "exp1" || res.Record.Author != "ada" || res.Record.ArchivePath != f.cfg.ArchivePath("exp1") {
		t.Fatalf("unexpected record %+v", res.Record)
	}

	records, err := f.service.Query(ctx)
	if err != nil || len(records) != 1 || records[0].Name != "exp1" {
		t.Fatalf("Query = %+v, %v", records, err)
	}

	extracted, err := f.service.Extract(ctx, "exp1")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if extracted.OutputDir != f.cfg.OutputDir("exp1") {
		t.Fatalf("output dir = %s", extracted.OutputDir)
	}
	for _, name := range []string{"a.png", "b.png", "metadata.txt"} {
		if _, err := os.Stat(filepath.Join(extracted.OutputDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(extracted.OutputDir, "metadata.txt"))
	if err != nil || len(data) != 0 {
		t.Fatalf("metadata.txt = %q, %v", data, err)
	}
}

func TestMetadataMatchesCatalogAndContainer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testsupport.WriteFile(t, filepath.Join(f.source, "metadata.txt"), []byte("microscope run 4\n"))

	if _, err := f.service.Insert(ctx, experiment.InsertRequest{Name: "exp", Author: "a", SourceDir: f.source}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rec, err := f.store.Get(ctx, "exp")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	extracted, err := f.service.Extract(ctx, "exp")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.Metadata != "microscope run 4\n" || extracted.Unpack.Metadata != rec.Metadata {
		t.Fatalf("catalog %q and container %q disagree", rec.Metadata, extracted.Unpack.Metadata)
	}
}

func TestInsertDuplicateLeavesFirstUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.Insert(ctx, experiment.InsertRequest{Name: "exp1", Author: "ada", SourceDir: f.source, Decide: emptyDecision()}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	before, err := os.Stat(f.cfg.ArchivePath("exp1"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	packed := false
	decide := func(context.Context) (metadata.Decision, error) {
		packed = true
		return metadata.Decision{Choice: metadata.ChoiceEmpty}, nil
	}
	_, err = f.service.Insert(ctx, experiment.InsertRequest{Name: "exp1", Author: "bob", SourceDir: f.source, Decide: decide})
	if !errors.Is(err, services.ErrDuplicateExperiment) {
		t.Fatalf("expected ErrDuplicateExperiment, got %v", err)
	}
	if packed {
		t.Fatal("duplicate insert should fail before packing")
	}
	after, err := os.Stat(f.cfg.ArchivePath("exp1"))
	if err != nil || !after.ModTime().Equal(before.ModTime()) {
		t.Fatalf("existing container modified: %v", err)
	}
	rec, _ := f.store.Get(ctx, "exp1")
	if rec.Author != "ada" {
		t.Fatalf("record overwritten: %+v", rec)
	}
}

func TestDeleteRemovesRecordAndDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.Insert(ctx, experiment.InsertRequest{Name: "exp1", Author: "ada", SourceDir: f.source, Decide: emptyDecision()}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := f.service.Delete(ctx, "exp1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.store.SelectPath(ctx, "exp1"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := os.Stat(f.cfg.ArchiveDir("exp1")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("archive dir still present: %v", err)
	}
	if err := f.service.Delete(ctx, "exp1"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("second delete expected ErrNotFound, got %v", err)
	}
}

func TestExtractUnknownAndMissingArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.Extract(ctx, "nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	testsupport.MustInsert(t, f.store, catalog.Record{Author: "a", Name: "ghost", ArchivePath: filepath.Join(f.cfg.Paths.ArchiveRoot, "ghost", "images.ivc")})
	_, err := f.service.Extract(ctx, "ghost")
	if !errors.Is(err, experiment.ErrArchiveMissing) {
		t.Fatalf("expected ErrArchiveMissing, got %v", err)
	}
}

func TestInsertRejectsInvalidNames(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"", "..", "a/b", " padded"} {
		_, err := f.service.Insert(context.Background(), experiment.InsertRequest{Name: name, SourceDir: f.source, Decide: emptyDecision()})
		if !errors.Is(err, experiment.ErrInvalidName) || !errors.Is(err, services.ErrValidation) {
			t.Fatalf("name %q: expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestInsertFailsWhenLockHeld(t *testing.T) {
	f := newFixture(t)
	other := flock.New(f.cfg.LockPath())
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: %v ok=%v", err, ok)
	}
	defer other.Unlock()

	_, err = f.service.Insert(context.Background(), experiment.InsertRequest{Name: "exp1", SourceDir: f.source, Decide: emptyDecision()})
	if !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

type failingCatalog struct {
	*catalog.Store
}

func (failingCatalog) Insert(context.Context, catalog.Record) error {
	return services.Wrap(services.ErrStorageUnavailable, "catalog", "insert", "disk full", nil)
}

func TestInsertCatalogFailureRemovesArchive(t *testing.T) {
	f := newFixture(t)
	writer, err := archive.NewWriter(f.cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	svc := experiment.New(f.cfg, failingCatalog{f.store}, writer, archive.NewReader("", nil), nil)

	_, err = svc.Insert(context.Background(), experiment.InsertRequest{Name: "exp1", SourceDir: f.source, Decide: emptyDecision()})
	if !errors.Is(err, services.ErrStorageUnavailable) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, err := os.Stat(f.cfg.ArchiveDir("exp1")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("archive dir left behind: %v", err)
	}
}

type pathCountingCatalog struct {
	*catalog.Store
	selectPathCalls int
}

func (c *pathCountingCatalog) SelectPath(ctx context.Context, name string) (string, error) {
	c.selectPathCalls++
	return c.Store.SelectPath(ctx, name)
}

func TestExtractResolvesContainerThroughSelectPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.service.Insert(ctx, experiment.InsertRequest{Name: "exp1", Author: "ada", SourceDir: f.source, Decide: emptyDecision()}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	cat := &pathCountingCatalog{Store: f.store}
	writer, err := archive.NewWriter(f.cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	svc := experiment.New(f.cfg, cat, writer, archive.NewReader("", nil), nil)
	res, err := svc.Extract(ctx, "exp1")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if cat.selectPathCalls != 1 {
		t.Fatalf("SelectPath called %d times, want 1", cat.selectPathCalls)
	}
	if res.Record.ArchivePath != f.cfg.ArchivePath("exp1") || len(res.Unpack.Files) != 3 {
		t.Fatalf("unexpected extract result %+v", res)
	}
}

func TestCheckAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.service.CheckAvailable(ctx, "exp1"); err != nil {
		t.Fatalf("CheckAvailable on empty catalog: %v", err)
	}
	testsupport.MustInsert(t, f.store, catalog.Record{Author: "ada", Name: "exp1", ArchivePath: f.cfg.ArchivePath("exp1")})
	if err := f.service.CheckAvailable(ctx, "exp1"); !errors.Is(err, services.ErrDuplicateExperiment) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if err := f.service.CheckAvailable(ctx, "a/b"); !errors.Is(err, experiment.ErrInvalidName) {
		t.Fatalf("expected invalid name, got %v", err)
	}
}
