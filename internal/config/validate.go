package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateLabeler(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ArchiveRoot) == "" {
		return errors.New("paths.archive_root must be set")
	}
	if strings.TrimSpace(c.Paths.OutputRoot) == "" {
		return errors.New("paths.output_root must be set")
	}
	if strings.TrimSpace(c.Paths.CatalogPath) == "" {
		return errors.New("paths.catalog_path must be set")
	}
	if filepath.Clean(c.Paths.ArchiveRoot) == filepath.Clean(c.Paths.OutputRoot) {
		return errors.New("paths.output_root must differ from paths.archive_root")
	}
	return nil
}

func (c *Config) validateArchive() error {
	switch c.Archive.Compression {
	case CompressionSnappy, CompressionNone:
	default:
		return fmt.Errorf("archive.compression must be %q or %q, got %q", CompressionSnappy, CompressionNone, c.Archive.Compression)
	}
	if hasPathSeparator(c.Archive.ContainerName) {
		return errors.New("archive.container_name must be a file name, not a path")
	}
	if hasPathSeparator(c.Archive.SidecarName) {
		return errors.New("archive.sidecar_name must be a file name, not a path")
	}
	return nil
}

func (c *Config) validateLabeler() error {
	if !c.Labeler.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Labeler.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("labeler.api_key must be set when labeler.enabled is true. Set IMGVAULT_LABELER_API_KEY or edit %s", defaultPath)
	}
	return nil
}
