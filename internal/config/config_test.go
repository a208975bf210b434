package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"imgvault/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("IMGVAULT_LABELER_API_KEY", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantArchive := filepath.Join(tempHome, ".local", "share", "imgvault", "archives")
	if cfg.Paths.ArchiveRoot != wantArchive {
		t.Fatalf("unexpected archive root: got %q want %q", cfg.Paths.ArchiveRoot, wantArchive)
	}
	if cfg.Paths.CatalogPath != filepath.Join(tempHome, ".local", "share", "imgvault", "data.db") {
		t.Fatalf("unexpected catalog path: %q", cfg.Paths.CatalogPath)
	}
	if cfg.Archive.Compression != config.CompressionSnappy {
		t.Fatalf("expected snappy compression by default, got %q", cfg.Archive.Compression)
	}
	if cfg.Archive.ContainerName != "images.ivc" {
		t.Fatalf("unexpected container name: %q", cfg.Archive.ContainerName)
	}
	if cfg.Archive.SidecarName != "metadata.txt" {
		t.Fatalf("unexpected sidecar name: %q", cfg.Archive.SidecarName)
	}
	if cfg.Labeler.Enabled {
		t.Fatal("expected labeler disabled by default")
	}
	if cfg.LabelerReady() {
		t.Fatal("expected labeler not ready without key")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.ArchiveRoot, filepath.Dir(cfg.Paths.CatalogPath), cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "imgvault.toml")

	type payload struct {
		Paths struct {
			ArchiveRoot string `toml:"archive_root"`
			OutputRoot  string `toml:"output_root"`
		} `toml:"paths"`
		Archive struct {
			Compression string `toml:"compression"`
		} `toml:"archive"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.ArchiveRoot = filepath.Join(tempDir, "bp")
	custom.Paths.OutputRoot = filepath.Join(tempDir, "out")
	custom.Archive.Compression = "NONE"
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.ArchiveRoot != custom.Paths.ArchiveRoot {
		t.Fatalf("expected archive root override, got %q", cfg.Paths.ArchiveRoot)
	}
	if cfg.Archive.Compression != config.CompressionNone {
		t.Fatalf("expected compression normalized to none, got %q", cfg.Archive.Compression)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
	if got := cfg.ArchivePath("exp1"); got != filepath.Join(custom.Paths.ArchiveRoot, "exp1", "images.ivc") {
		t.Fatalf("unexpected archive path %q", got)
	}
	if got := cfg.OutputDir("exp1"); got != filepath.Join(custom.Paths.OutputRoot, "exp1") {
		t.Fatalf("unexpected output dir %q", got)
	}
}

func TestLabelerKeyFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("IMGVAULT_LABELER_API_KEY", "env-key")
	configPath := filepath.Join(t.TempDir(), "imgvault.toml")
	if err := os.WriteFile(configPath, []byte("[labeler]\nenabled = true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Labeler.APIKey != "env-key" {
		t.Fatalf("expected labeler key from env, got %q", cfg.Labeler.APIKey)
	}
	if !cfg.LabelerReady() {
		t.Fatal("expected labeler ready")
	}
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(string(encoded), "env-key") {
		t.Fatalf("expected api key redacted, got:\n%s", encoded)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"compression", func(c *config.Config) { c.Archive.Compression = "zstd" }, "archive.compression"},
		{"container path", func(c *config.Config) { c.Archive.ContainerName = "a/b.ivc" }, "archive.container_name"},
		{"sidecar path", func(c *config.Config) { c.Archive.SidecarName = "x/metadata.txt" }, "archive.sidecar_name"},
		{"same roots", func(c *config.Config) { c.Paths.OutputRoot = c.Paths.ArchiveRoot }, "paths.output_root"},
		{"labeler key", func(c *config.Config) { c.Labeler.Enabled = true; c.Labeler.APIKey = "" }, "labeler.api_key"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.ArchiveRoot = "/tmp/archives"
			cfg.Paths.OutputRoot = "/tmp/output"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error %q", tc.want, err.Error())
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(target); err != nil || !exists {
		t.Fatalf("expected sample config to load, exists=%v err=%v", exists, err)
	}
}
