package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and catalog locations.
type Paths struct {
	ArchiveRoot string `toml:"archive_root"`
	OutputRoot  string `toml:"output_root"`
	CatalogPath string `toml:"catalog_path"`
	LogDir      string `toml:"log_dir"`
}

// Archive contains container layout settings.
type Archive struct {
	// Compression selects the block codec for image payloads: "snappy" or "none".
	Compression   string `toml:"compression"`
	ContainerName string `toml:"container_name"`
	SidecarName   string `toml:"sidecar_name"`
}

// Labeler contains the AI labeler connection settings.
type Labeler struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for imgvault.
//
// Configuration sections by subsystem:
//   - Paths: archive root, extraction output root, catalog database, logs
//   - Archive: container codec and file naming
//   - Labeler: optional vision model used to generate metadata
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Archive Archive `toml:"archive"`
	Labeler Labeler `toml:"labeler"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("imgvault.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the archive root, the catalog directory, and the log
// directory. The output root is created lazily by extraction.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ArchiveRoot, filepath.Dir(c.Paths.CatalogPath), c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ArchiveDir returns the directory holding the container for an experiment.
func (c *Config) ArchiveDir(experiment string) string {
	return filepath.Join(c.Paths.ArchiveRoot, experiment)
}

// ArchivePath returns the container path for an experiment.
func (c *Config) ArchivePath(experiment string) string {
	return filepath.Join(c.ArchiveDir(experiment), c.Archive.ContainerName)
}

// OutputDir returns the extraction directory for an experiment.
func (c *Config) OutputDir(experiment string) string {
	return filepath.Join(c.Paths.OutputRoot, experiment)
}

// LockPath returns the instance lock file guarding the catalog and archive root.
func (c *Config) LockPath() string {
	return filepath.Join(filepath.Dir(c.Paths.CatalogPath), "imgvault.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	redacted := *c
	if redacted.Labeler.APIKey != "" {
		redacted.Labeler.APIKey = "<redacted>"
	}
	data, err := toml.Marshal(redacted)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// LabelerConfig contains the labeler connection settings after normalization.
type LabelerConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLabeler returns the labeler connection settings.
func (c *Config) GetLabeler() LabelerConfig {
	return LabelerConfig{
		APIKey:         strings.TrimSpace(c.Labeler.APIKey),
		BaseURL:        strings.TrimSpace(c.Labeler.BaseURL),
		Model:          strings.TrimSpace(c.Labeler.Model),
		Referer:        strings.TrimSpace(c.Labeler.Referer),
		Title:          strings.TrimSpace(c.Labeler.Title),
		TimeoutSeconds: c.Labeler.TimeoutSeconds,
	}
}

// LabelerReady reports whether AI labeling is enabled and has credentials.
func (c *Config) LabelerReady() bool {
	return c.Labeler.Enabled && strings.TrimSpace(c.Labeler.APIKey) != ""
}
