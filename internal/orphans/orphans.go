package orphans

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"imgvault/internal/logging"
)

// Dir describes a directory under the archive root.
type Dir struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// CleanupError pairs a directory path with its removal error.
type CleanupError struct {
	Path  string
	Error error
}

// Result contains the outcome of a removal pass.
type Result struct {
	Removed []string
	Errors  []CleanupError
}

// Find lists directories in archiveRoot whose name is not in known and whose
// modification time is older than minAge. A missing root yields no orphans.
func Find(archiveRoot string, known map[string]struct{}, minAge time.Duration, now time.Time) ([]Dir, error) {
	dirs, err := ListDirectories(archiveRoot)
	if err != nil {
		return nil, err
	}
	cutoff := now.Add(-minAge)
	var out []Dir
	for _, d := range dirs {
		if _, ok := known[d.Name]; ok {
			continue
		}
		if minAge > 0 && d.ModTime.After(cutoff) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// Remove deletes every directory in dirs. It keeps going after failures and
// stops early only when ctx is cancelled.
func Remove(ctx context.Context, dirs []Dir, logger *slog.Logger) Result {
	if logger == nil {
		logger = logging.NewNop()
	}
	var result Result
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: d.Path, Error: err})
			return result
		}
		if err := os.RemoveAll(d.Path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: d.Path, Error: err})
			logger.WarnContext(ctx, "failed to remove orphaned archive directory",
				logging.String("path", d.Path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "orphan_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check archive_root permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, d.Path)
		logger.InfoContext(ctx, "removed orphaned archive directory",
			logging.String("path", d.Path),
			logging.Int64("bytes", d.Size),
			logging.String(logging.FieldEventType, "orphan_cleanup"),
		)
	}
	return result
}

// ListDirectories returns the directories directly under root, sorted by name.
// Hidden entries are skipped.
func ListDirectories(root string) ([]Dir, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []Dir
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(root, entry.Name())
		dirs = append(dirs, Dir{
			Name:    entry.Name(),
			Path:    path,
			ModTime: info.ModTime(),
			Size:    dirSize(path),
		})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	return dirs, nil
}

// dirSize is best effort; unreadable entries count as zero.
func dirSize(path string) int64 {
	var size int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
