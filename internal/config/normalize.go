package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeArchive()
	c.normalizeLabeler()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ArchiveRoot) == "" {
		c.Paths.ArchiveRoot = defaultArchiveRoot
	}
	if c.Paths.ArchiveRoot, err = expandPath(c.Paths.ArchiveRoot); err != nil {
		return fmt.Errorf("paths.archive_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputRoot) == "" {
		c.Paths.OutputRoot = defaultOutputRoot
	}
	if c.Paths.OutputRoot, err = expandPath(c.Paths.OutputRoot); err != nil {
		return fmt.Errorf("paths.output_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.CatalogPath) == "" {
		c.Paths.CatalogPath = defaultCatalogPath
	}
	if c.Paths.CatalogPath, err = expandPath(c.Paths.CatalogPath); err != nil {
		return fmt.Errorf("paths.catalog_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeArchive() {
	c.Archive.Compression = strings.ToLower(strings.TrimSpace(c.Archive.Compression))
	if c.Archive.Compression == "" {
		c.Archive.Compression = defaultCompression
	}
	c.Archive.ContainerName = strings.TrimSpace(c.Archive.ContainerName)
	if c.Archive.ContainerName == "" {
		c.Archive.ContainerName = defaultContainerName
	}
	c.Archive.SidecarName = strings.TrimSpace(c.Archive.SidecarName)
	if c.Archive.SidecarName == "" {
		c.Archive.SidecarName = defaultSidecarName
	}
}

func (c *Config) normalizeLabeler() {
	c.Labeler.APIKey = strings.TrimSpace(c.Labeler.APIKey)
	if c.Labeler.APIKey == "" {
		if value, ok := os.LookupEnv("IMGVAULT_LABELER_API_KEY"); ok {
			c.Labeler.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Labeler.APIKey = strings.TrimSpace(value)
		}
	}
	c.Labeler.BaseURL = strings.TrimSpace(c.Labeler.BaseURL)
	if c.Labeler.BaseURL == "" {
		c.Labeler.BaseURL = defaultLabelerBaseURL
	}
	c.Labeler.Model = strings.TrimSpace(c.Labeler.Model)
	if c.Labeler.Model == "" {
		c.Labeler.Model = defaultLabelerModel
	}
	c.Labeler.Referer = strings.TrimSpace(c.Labeler.Referer)
	if c.Labeler.Referer == "" {
		c.Labeler.Referer = defaultLabelerReferer
	}
	c.Labeler.Title = strings.TrimSpace(c.Labeler.Title)
	if c.Labeler.Title == "" {
		c.Labeler.Title = defaultLabelerTitle
	}
	if c.Labeler.TimeoutSeconds <= 0 {
		c.Labeler.TimeoutSeconds = defaultLabelerTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// hasPathSeparator reports whether a configured file name would escape its directory.
func hasPathSeparator(name string) bool {
	return strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator)
}
