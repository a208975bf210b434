package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/renameio"

	"imgvault/internal/container"
	"imgvault/internal/imagecodec"
	"imgvault/internal/logging"
	"imgvault/internal/metadata"
	"imgvault/internal/services"
)

// UnpackResult lists what an unpack wrote.
type UnpackResult struct {
	// Files holds image paths in variable order, followed by the sidecar path
	// when metadata was present.
	Files         []string
	Metadata      string
	MetadataFound bool
	// Warnings collects non-fatal problems such as a missing metadata attribute.
	Warnings []error
}

// Reader restores containers to image files.
type Reader struct {
	sidecarName string
	logger      *slog.Logger
}

// NewReader builds a reader that writes metadata to sidecarName.
func NewReader(sidecarName string, logger *slog.Logger) *Reader {
	if sidecarName == "" {
		sidecarName = metadata.DefaultSidecarName
	}
	return &Reader{sidecarName: sidecarName, logger: logging.NewComponentLogger(logger, "archive")}
}

// Unpack writes every image variable of archivePath into outputDir, padding
// buffers with fewer than three channels, then writes the metadata sidecar.
func (r *Reader) Unpack(ctx context.Context, archivePath, outputDir string) (UnpackResult, error) {
	var result UnpackResult

	cr, err := container.Open(archivePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return result, services.Wrap(services.ErrPathNotFound, "archive", "open container", archivePath, err)
		}
		return result, services.Wrap(services.ErrStorageUnavailable, "archive", "open container", archivePath, err)
	}
	defer cr.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrStorageUnavailable, "archive", "create output dir", outputDir, err)
	}

	for _, name := range cr.Variables() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		path, err := r.restore(ctx, cr, name, outputDir)
		if err != nil {
			return result, err
		}
		result.Files = append(result.Files, path)
	}

	if text, ok := cr.Attribute(MetadataAttribute); ok {
		sidecar := filepath.Join(outputDir, r.sidecarName)
		if err := renameio.WriteFile(sidecar, []byte(text), 0o644); err != nil {
			return result, services.Wrap(services.ErrStorageUnavailable, "archive", "write metadata", sidecar, err)
		}
		result.Files = append(result.Files, sidecar)
		result.Metadata = text
		result.MetadataFound = true
	} else {
		warning := services.Wrap(services.ErrMetadataAttributeMissing, "archive", "unpack", archivePath, nil)
		result.Warnings = append(result.Warnings, warning)
		r.logger.WarnContext(ctx, "container has no metadata attribute",
			logging.String("path", archivePath),
			logging.String(logging.FieldEventType, "metadata_missing"),
			logging.String(logging.FieldErrorHint, "images were restored without a metadata sidecar"),
		)
	}

	r.logger.InfoContext(ctx, "container unpacked",
		logging.String("path", archivePath),
		logging.String("output", outputDir),
		logging.Int("files", len(result.Files)),
		logging.Bool("metadata_found", result.MetadataFound),
	)
	return result, nil
}

func (r *Reader) restore(ctx context.Context, cr *container.Reader, name, outputDir string) (string, error) {
	if name == "." || name == ".." || filepath.Base(name) != name {
		return "", services.Wrap(services.ErrValidation, "archive", "restore", fmt.Sprintf("unsafe variable name %q", name), nil)
	}
	info, err := cr.Inquire(name)
	if err != nil {
		return "", err
	}
	if len(info.Shape) != 3 {
		return "", services.Wrap(services.ErrValidation, "archive", "restore", fmt.Sprintf("%s has %d dimensions, want 3", name, len(info.Shape)), nil)
	}
	pix, err := cr.Read(name, info.Full())
	if err != nil {
		return "", services.Wrap(services.ErrStorageUnavailable, "archive", "read variable", name, err)
	}

	channels := int(info.Shape[2])
	img, err := PromoteToThreeChannels(&imagecodec.Image{
		Height:   int(info.Shape[0]),
		Width:    int(info.Shape[1]),
		Channels: channels,
		Pix:      pix,
	})
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "archive", "restore", name, err)
	}
	path := filepath.Join(outputDir, name)
	if err := imagecodec.Encode(path, img); err != nil {
		return "", services.Wrap(services.ErrStorageUnavailable, "archive", "encode image", path, err)
	}
	r.logger.DebugContext(ctx, "image restored",
		logging.String("image", name),
		logging.Int("channels", channels),
		logging.Bool("padded", channels < 3),
	)
	return path, nil
}
