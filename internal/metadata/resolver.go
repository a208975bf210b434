package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"

	"imgvault/internal/logging"
	"imgvault/internal/services"
)

// DefaultSidecarName is the metadata file kept next to the source images.
const DefaultSidecarName = "metadata.txt"

// ErrLabelerUnavailable is returned when AI metadata is requested without a labeler.
var ErrLabelerUnavailable = errors.New("labeler unavailable")

// Labeler produces a short description for one image.
type Labeler interface {
	Label(ctx context.Context, imagePath string) (string, error)
}

// LabelerFunc adapts a function to the Labeler interface.
type LabelerFunc func(ctx context.Context, imagePath string) (string, error)

func (f LabelerFunc) Label(ctx context.Context, imagePath string) (string, error) {
	return f(ctx, imagePath)
}

// Resolver turns a Decision into metadata text and persists it as a sidecar.
type Resolver struct {
	Labeler     Labeler
	SidecarName string
	Logger      *slog.Logger
}

// NewResolver constructs a resolver. labeler may be nil when AI labeling is disabled.
func NewResolver(labeler Labeler, sidecarName string, logger *slog.Logger) *Resolver {
	if sidecarName == "" {
		sidecarName = DefaultSidecarName
	}
	return &Resolver{
		Labeler:     labeler,
		SidecarName: sidecarName,
		Logger:      logging.NewComponentLogger(logger, "metadata"),
	}
}

func (r *Resolver) sidecarName() string {
	if r.SidecarName == "" {
		return DefaultSidecarName
	}
	return r.SidecarName
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.NewNop()
	}
	return r.Logger
}

// Resolve produces the metadata text for decision and writes it to the sidecar
// in dir. On success the sidecar exists and holds exactly the returned text.
// imageNames are base names inside dir, in the order they should be labeled.
func (r *Resolver) Resolve(ctx context.Context, dir string, imageNames []string, decision Decision) (string, error) {
	if err := decision.Validate(); err != nil {
		return "", err
	}

	var text string
	switch decision.Choice {
	case ChoiceEmpty:
		text = ""
	case ChoiceCustom:
		text = firstLine(decision.CustomText)
	case ChoiceAI:
		labeled, err := r.label(ctx, dir, imageNames)
		if err != nil {
			return "", err
		}
		text = labeled
	}

	path := filepath.Join(dir, r.sidecarName())
	if err := renameio.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", services.Wrap(services.ErrStorageUnavailable, "metadata", "write sidecar", path, err)
	}
	r.logger().InfoContext(ctx, "metadata sidecar written",
		logging.String("choice", decision.Choice.String()),
		logging.String("path", path),
		logging.Int("bytes", len(text)),
	)
	return text, nil
}

func (r *Resolver) label(ctx context.Context, dir string, imageNames []string) (string, error) {
	if r.Labeler == nil {
		return "", services.Wrap(services.ErrConfiguration, "metadata", "ai labels",
			"AI metadata requested but no labeler is configured", ErrLabelerUnavailable)
	}
	var b strings.Builder
	for _, name := range imageNames {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		label, err := r.Labeler.Label(ctx, filepath.Join(dir, name))
		if err != nil {
			return "", fmt.Errorf("label %s: %w", name, err)
		}
		r.logger().DebugContext(ctx, "image labeled", logging.String("image", name), logging.String("label", label))
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(label)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// ReadSidecar returns the sidecar contents verbatim and whether it exists.
func ReadSidecar(dir, name string) (string, bool, error) {
	if name == "" {
		name = DefaultSidecarName
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}
