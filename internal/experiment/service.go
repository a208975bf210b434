package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gofrs/flock"

	"imgvault/internal/archive"
	"imgvault/internal/catalog"
	"imgvault/internal/config"
	"imgvault/internal/logging"
	"imgvault/internal/services"
)

var (
	// ErrInvalidName marks experiment names that cannot be used as a directory name.
	ErrInvalidName = errors.New("invalid experiment name")
	// ErrArchiveMissing marks a catalog record whose container is gone from disk.
	ErrArchiveMissing = errors.New("archive missing on disk")
)

// Catalog is the record store the service depends on.
type Catalog interface {
	Exists(ctx context.Context, name string) (bool, error)
	Insert(ctx context.Context, rec catalog.Record) error
	SelectAll(ctx context.Context) ([]catalog.Record, error)
	SelectPath(ctx context.Context, name string) (string, error)
	Get(ctx context.Context, name string) (catalog.Record, error)
	Delete(ctx context.Context, name string) error
}

// Packer builds containers from source directories.
type Packer interface {
	Pack(ctx context.Context, experimentName, sourceDir string, decide archive.DecisionFunc) (archive.PackResult, error)
	ArchiveDir(experimentName string) string
}

// Unpacker restores containers into a directory.
type Unpacker interface {
	Unpack(ctx context.Context, archivePath, outputDir string) (archive.UnpackResult, error)
}

// Service orchestrates the insert, query, extract and delete operations
// across the archive store and the catalog.
type Service struct {
	cfg      *config.Config
	catalog  Catalog
	packer   Packer
	unpacker Unpacker
	logger   *slog.Logger
	lock     *flock.Flock
}

// New wires a service. Mutating operations serialize on a file lock next to
// the catalog database.
func New(cfg *config.Config, cat Catalog, packer Packer, unpacker Unpacker, logger *slog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		catalog:  cat,
		packer:   packer,
		unpacker: unpacker,
		logger:   logging.NewComponentLogger(logger, "experiment"),
		lock:     flock.New(cfg.LockPath()),
	}
}

// Lock takes the instance lock without blocking. The returned function
// releases it.
func (s *Service) Lock() (func(), error) {
	ok, err := s.lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrStorageUnavailable, "experiment", "lock", s.cfg.LockPath(), err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrBusy, "experiment", "lock", s.cfg.LockPath(), nil)
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release instance lock", logging.Error(err))
		}
	}, nil
}

// ValidateName rejects names that are empty or would escape the archive root.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return services.Wrap(services.ErrValidation, "experiment", "validate name", "name is empty", ErrInvalidName)
	case trimmed != name:
		return services.Wrap(services.ErrValidation, "experiment", "validate name", fmt.Sprintf("%q has surrounding whitespace", name), ErrInvalidName)
	case name == "." || name == "..":
		return services.Wrap(services.ErrValidation, "experiment", "validate name", fmt.Sprintf("%q is reserved", name), ErrInvalidName)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return services.Wrap(services.ErrValidation, "experiment", "validate name", fmt.Sprintf("%q contains a path separator", name), ErrInvalidName)
	}
	return nil
}

// InsertRequest describes a new experiment.
type InsertRequest struct {
	Name      string
	Author    string
	SourceDir string
	// Decide is consulted only when SourceDir has no metadata sidecar.
	Decide archive.DecisionFunc
}

// InsertResult reports what Insert stored.
type InsertResult struct {
	Record catalog.Record
	Pack   archive.PackResult
}

// Insert packs the source directory and records it in the catalog. An
// existing name fails before any packing happens.
func (s *Service) Insert(ctx context.Context, req InsertRequest) (InsertResult, error) {
	var result InsertResult
	if err := ValidateName(req.Name); err != nil {
		return result, err
	}
	ctx = services.WithExperiment(ctx, req.Name)

	release, err := s.Lock()
	if err != nil {
		return result, err
	}
	defer release()

	if err := s.CheckAvailable(ctx, req.Name); err != nil {
		return result, err
	}

	packed, err := s.packer.Pack(ctx, req.Name, req.SourceDir, req.Decide)
	if err != nil {
		return result, err
	}
	result.Pack = packed

	rec := catalog.Record{
		Author:      req.Author,
		Name:        req.Name,
		ArchivePath: packed.ArchivePath,
		Metadata:    packed.Metadata,
	}
	if err := s.catalog.Insert(ctx, rec); err != nil {
		dir := s.packer.ArchiveDir(req.Name)
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			s.logger.WarnContext(ctx, "failed to remove archive after catalog error",
				logging.String("path", dir),
				logging.Error(rmErr),
				logging.String(logging.FieldImpact, "orphan container left on disk"),
			)
		}
		return result, err
	}
	stored, err := s.catalog.Get(ctx, req.Name)
	if err != nil {
		stored = rec
	}
	result.Record = stored
	s.logger.InfoContext(ctx, "experiment inserted",
		logging.String("archive_path", packed.ArchivePath),
		logging.Int("images", len(packed.Images)),
	)
	return result, nil
}

// CheckAvailable fails with ErrDuplicateExperiment when name is already
// catalogued, so callers can reject a name before collecting anything else.
func (s *Service) CheckAvailable(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	exists, err := s.catalog.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return services.Wrap(services.ErrDuplicateExperiment, "experiment", "insert", name, nil)
	}
	return nil
}

// Query returns every catalogued experiment.
func (s *Service) Query(ctx context.Context) ([]catalog.Record, error) {
	return s.catalog.SelectAll(ctx)
}

// ExtractResult reports where an experiment was restored.
type ExtractResult struct {
	Record    catalog.Record
	OutputDir string
	Unpack    archive.UnpackResult
}

// Extract restores the named experiment into the output root.
func (s *Service) Extract(ctx context.Context, name string) (ExtractResult, error) {
	var result ExtractResult
	if err := ValidateName(name); err != nil {
		return result, err
	}
	ctx = services.WithExperiment(ctx, name)

	archivePath, err := s.catalog.SelectPath(ctx, name)
	if err != nil {
		return result, err
	}
	if _, err := os.Stat(archivePath); err != nil {
		return result, services.Wrap(services.ErrStorageUnavailable, "experiment", "extract", archivePath, fmt.Errorf("%w: %v", ErrArchiveMissing, err))
	}
	rec, err := s.catalog.Get(ctx, name)
	if err != nil {
		return result, err
	}
	result.Record = rec

	result.OutputDir = s.cfg.OutputDir(name)
	unpacked, err := s.unpacker.Unpack(ctx, archivePath, result.OutputDir)
	if err != nil {
		return result, err
	}
	result.Unpack = unpacked
	for _, warning := range unpacked.Warnings {
		s.logger.WarnContext(ctx, "extract warning",
			logging.Error(warning),
			logging.String(logging.FieldEventType, "extract_warning"),
		)
	}
	s.logger.InfoContext(ctx, "experiment extracted",
		logging.String("output", result.OutputDir),
		logging.Int("files", len(unpacked.Files)),
	)
	return result, nil
}

// Delete removes the catalog record and then the archive directory. The two
// steps are not atomic; a failure after the record is gone leaves an orphan
// directory that a later insert of the same name replaces.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	ctx = services.WithExperiment(ctx, name)

	release, err := s.Lock()
	if err != nil {
		return err
	}
	defer release()

	if err := s.catalog.Delete(ctx, name); err != nil {
		return err
	}
	dir := s.packer.ArchiveDir(name)
	if err := os.RemoveAll(dir); err != nil {
		return services.Wrap(services.ErrStorageUnavailable, "experiment", "delete", dir, err)
	}
	s.logger.InfoContext(ctx, "experiment deleted", logging.String("path", dir))
	return nil
}
