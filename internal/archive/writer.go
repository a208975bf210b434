package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"imgvault/internal/config"
	"imgvault/internal/container"
	"imgvault/internal/imagecodec"
	"imgvault/internal/logging"
	"imgvault/internal/metadata"
	"imgvault/internal/services"
)

// DecisionFunc supplies the metadata decision when the source directory has
// no sidecar. It is not called when a sidecar already exists.
type DecisionFunc func(ctx context.Context) (metadata.Decision, error)

// Fixed returns a DecisionFunc that always yields d.
func Fixed(d metadata.Decision) DecisionFunc {
	return func(context.Context) (metadata.Decision, error) {
		return d, nil
	}
}

// PackResult describes a committed container.
type PackResult struct {
	ArchivePath string
	Metadata    string
	Images      []ImageDescriptor
	// MetadataResolved is set when the sidecar was produced during this pack.
	MetadataResolved bool
}

// Writer packs source directories into containers under the archive root.
type Writer struct {
	archiveRoot   string
	containerName string
	sidecarName   string
	codec         container.Codec
	resolver      *metadata.Resolver
	logger        *slog.Logger
}

// NewWriter builds a writer from configuration.
func NewWriter(cfg *config.Config, resolver *metadata.Resolver, logger *slog.Logger) (*Writer, error) {
	codec, err := container.ParseCodec(cfg.Archive.Compression)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "archive", "new writer", "archive.compression", err)
	}
	if resolver == nil {
		resolver = metadata.NewResolver(nil, cfg.Archive.SidecarName, logger)
	}
	return &Writer{
		archiveRoot:   cfg.Paths.ArchiveRoot,
		containerName: cfg.Archive.ContainerName,
		sidecarName:   cfg.Archive.SidecarName,
		codec:         codec,
		resolver:      resolver,
		logger:        logging.NewComponentLogger(logger, "archive"),
	}, nil
}

// ArchiveDir returns the directory that holds an experiment's container.
func (w *Writer) ArchiveDir(experimentName string) string {
	return filepath.Join(w.archiveRoot, experimentName)
}

// ArchivePath returns the container path for an experiment.
func (w *Writer) ArchivePath(experimentName string) string {
	return filepath.Join(w.ArchiveDir(experimentName), w.containerName)
}

// Pack stores every image in sourceDir in a new container for experimentName.
// The container is committed atomically; on any failure nothing is left at
// the archive path.
func (w *Writer) Pack(ctx context.Context, experimentName, sourceDir string, decide DecisionFunc) (PackResult, error) {
	var result PackResult
	ctx = services.WithExperiment(ctx, experimentName)

	info, err := os.Stat(sourceDir)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = errors.New("not a directory")
		}
		return result, services.Wrap(services.ErrPathNotFound, "archive", "pack", sourceDir, err)
	}

	names, err := w.listImages(sourceDir)
	if err != nil {
		return result, services.Wrap(services.ErrPathNotFound, "archive", "scan source", sourceDir, err)
	}

	archiveDir := w.ArchiveDir(experimentName)
	_, statErr := os.Stat(archiveDir)
	createdDir := errors.Is(statErr, os.ErrNotExist)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrStorageUnavailable, "archive", "create archive dir", archiveDir, err)
	}
	path := w.ArchivePath(experimentName)
	if _, err := os.Stat(path); err == nil {
		w.logger.WarnContext(ctx, "replacing stale container",
			logging.String("path", path),
			logging.String(logging.FieldEventType, "stale_container"),
			logging.String(logging.FieldImpact, "existing file has no catalog record and will be overwritten"),
		)
	}

	cw, err := container.Create(path, container.WithCodec(w.codec))
	if err != nil {
		w.cleanupDir(archiveDir, createdDir)
		return result, services.Wrap(services.ErrStorageUnavailable, "archive", "create container", path, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = cw.Abort()
			w.cleanupDir(archiveDir, createdDir)
		}
	}()

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		desc, err := w.putImage(ctx, cw, sourceDir, name)
		if err != nil {
			return result, err
		}
		result.Images = append(result.Images, desc)
	}

	if _, found, err := metadata.ReadSidecar(sourceDir, w.sidecarName); err != nil {
		return result, services.Wrap(services.ErrStorageUnavailable, "archive", "read sidecar", sourceDir, err)
	} else if !found {
		if decide == nil {
			return result, services.Wrap(services.ErrInvalidMetadataChoice, "archive", "resolve metadata",
				"sidecar missing and no metadata choice supplied", nil)
		}
		decision, err := decide(ctx)
		if err != nil {
			return result, err
		}
		m, err := metadata.MachineFor(decision)
		if err != nil {
			return result, err
		}
		if _, err := m.Resolve(ctx, w.resolver, sourceDir, names); err != nil {
			return result, err
		}
		result.MetadataResolved = m.State() == metadata.StateResolved
	}

	text, found, err := metadata.ReadSidecar(sourceDir, w.sidecarName)
	if err != nil || !found {
		if err == nil {
			err = os.ErrNotExist
		}
		return result, services.Wrap(services.ErrStorageUnavailable, "archive", "read sidecar", sourceDir, err)
	}
	if err := cw.DefineAttribute(MetadataAttribute, text); err != nil {
		return result, fmt.Errorf("define metadata attribute: %w", err)
	}

	if err := cw.Close(); err != nil {
		return result, services.Wrap(services.ErrStorageUnavailable, "archive", "commit container", path, err)
	}
	committed = true

	result.ArchivePath = path
	result.Metadata = text
	w.logger.InfoContext(ctx, "container committed",
		logging.String("path", path),
		logging.Int("images", len(result.Images)),
		logging.Bool("metadata_resolved", result.MetadataResolved),
	)
	return result, nil
}

// listImages returns the regular files in dir, sorted, excluding the sidecar.
// Symlinks count when their target is a regular file; dangling links are
// skipped.
func (w *Writer) listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Name() == w.sidecarName {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if !info.Mode().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func (w *Writer) putImage(ctx context.Context, cw *container.Writer, dir, name string) (ImageDescriptor, error) {
	img, err := imagecodec.Decode(filepath.Join(dir, name))
	if err != nil {
		return ImageDescriptor{}, services.Wrap(services.ErrImageDecodeFailed, "archive", "decode", name, err)
	}
	desc := ImageDescriptor{Name: name, Promoted: img.Channels != 3}
	img, err = PromoteToThreeChannels(img)
	if err != nil {
		return desc, services.Wrap(services.ErrImageDecodeFailed, "archive", "normalize", name, err)
	}
	desc.Height, desc.Width, desc.Channels = img.Height, img.Width, img.Channels

	shape := desc.Shape()
	if err := cw.DefineVariable(name, shape, []uint64{0, 0, 0}, shape); err != nil {
		return desc, fmt.Errorf("define variable %s: %w", name, err)
	}
	if err := cw.Put(name, img.Pix); err != nil {
		return desc, services.Wrap(services.ErrStorageUnavailable, "archive", "write image", name, err)
	}
	w.logger.DebugContext(ctx, "writing image",
		logging.String("image", name),
		logging.Int("height", desc.Height),
		logging.Int("width", desc.Width),
		logging.Int("channels", desc.Channels),
		logging.Bool("promoted", desc.Promoted),
	)
	return desc, nil
}

// cleanupDir removes the archive directory when this pack created it and it
// is still empty.
func (w *Writer) cleanupDir(dir string, created bool) {
	if created {
		_ = os.Remove(dir)
	}
}
