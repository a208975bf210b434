package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// rotateThreshold is the size at which the active log is rolled over before
// a command starts writing to it.
const rotateThreshold = 8 << 20

// RotateIfLarge renames dir/imgvault.log to a timestamped sibling once it
// exceeds the rotation threshold. A missing log is not an error.
func RotateIfLarge(dir string, now time.Time) (string, error) {
	active := filepath.Join(dir, LogFileName)
	info, err := os.Stat(active)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("stat log: %w", err)
	}
	if info.Size() < rotateThreshold {
		return "", nil
	}
	base := strings.TrimSuffix(LogFileName, filepath.Ext(LogFileName))
	rotated := filepath.Join(dir, fmt.Sprintf("%s-%s.log", base, now.UTC().Format("20060102T150405")))
	if err := os.Rename(active, rotated); err != nil {
		return "", fmt.Errorf("rotate log: %w", err)
	}
	return rotated, nil
}

// CleanupOldLogs removes rotated log files in dir older than retentionDays.
// The active log is never removed. A retentionDays value of 0 disables pruning.
func CleanupOldLogs(logger *slog.Logger, dir string, retentionDays int) int {
	if logger == nil {
		logger = NewNop()
	}
	if retentionDays <= 0 || strings.TrimSpace(dir) == "" {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	base := strings.TrimSuffix(LogFileName, filepath.Ext(LogFileName))
	pattern := base + "-*.log"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if matched, err := filepath.Match(pattern, name); err != nil || !matched {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		fullPath := filepath.Join(dir, name)
		if err := os.Remove(fullPath); err != nil {
			logger.Warn("log retention remove failed; file remains",
				String("path", fullPath),
				Error(err),
				String(FieldEventType, "log_retention_failed"),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		logger.Debug("log pruned",
			String("path", fullPath),
			String(FieldEventType, "log_pruned"),
		)
	}
	return removed
}
