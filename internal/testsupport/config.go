package testsupport

import (
	"path/filepath"
	"testing"

	"imgvault/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ArchiveRoot = filepath.Join(base, "archives")
	cfgVal.Paths.OutputRoot = filepath.Join(base, "output")
	cfgVal.Paths.CatalogPath = filepath.Join(base, "catalog", "data.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Labeler.Enabled = false
	cfgVal.Labeler.APIKey = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithCompression sets the container block codec.
func WithCompression(codec string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Archive.Compression = codec
	}
}

// WithLabeler enables the labeler against the given endpoint.
func WithLabeler(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Labeler.Enabled = true
		b.cfg.Labeler.BaseURL = baseURL
		b.cfg.Labeler.APIKey = apiKey
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ArchiveRoot)
}
