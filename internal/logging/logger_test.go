package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"imgvault/internal/config"
	"imgvault/internal/logging"
	"imgvault/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "archive").Info("message without caller", logging.String("name", "a.png"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
	if !strings.Contains(line, "archive: message without caller") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "name=a.png") {
		t.Fatalf("expected attribute rendering, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestJSONLoggerUsesContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithExperiment(context.Background(), "exp1")
	ctx = services.WithRequestID(ctx, "req-1")
	logger.InfoContext(ctx, "packed")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("decode json log %q: %v", content, err)
	}
	if entry["msg"] != "packed" || entry["level"] != "info" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if entry[logging.FieldExperiment] != "exp1" || entry[logging.FieldCorrelationID] != "req-1" {
		t.Fatalf("expected context fields, got %#v", entry)
	}
}

func TestConsoleLoggerTakesExperimentFromContext(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-ctx.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithExperiment(context.Background(), "exp1")
	logging.NewComponentLogger(logger, "archive").InfoContext(ctx, "container unpacked")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "archive [exp1]: container unpacked") {
		t.Fatalf("expected experiment subject from context, got %q", content)
	}
}

func TestBoundFieldsAreNotRepeatedFromContext(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json-bound.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRequestID(context.Background(), "req-1")
	logger.With(logging.String(logging.FieldCorrelationID, "req-1")).InfoContext(ctx, "deleted")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if got := strings.Count(string(content), logging.FieldCorrelationID); got != 1 {
		t.Fatalf("expected correlation id once, found %d in %q", got, content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestRotateAndCleanup(t *testing.T) {
	dir := t.TempDir()
	active := filepath.Join(dir, logging.LogFileName)
	if err := os.WriteFile(active, make([]byte, 9<<20), 0o644); err != nil {
		t.Fatalf("write active log: %v", err)
	}
	rotated, err := logging.RotateIfLarge(dir, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("RotateIfLarge: %v", err)
	}
	if filepath.Base(rotated) != "imgvault-20260102T030405.log" {
		t.Fatalf("unexpected rotated name %q", rotated)
	}
	if _, err := os.Stat(active); !os.IsNotExist(err) {
		t.Fatalf("expected active log moved, stat err=%v", err)
	}

	old := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(rotated, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.WriteFile(active, []byte("fresh"), 0o644); err != nil {
		t.Fatalf("write active log: %v", err)
	}
	if removed := logging.CleanupOldLogs(logging.NewNop(), dir, 5); removed != 1 {
		t.Fatalf("expected one pruned log, got %d", removed)
	}
	if _, err := os.Stat(active); err != nil {
		t.Fatalf("active log must survive cleanup: %v", err)
	}
}
