package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"imgvault/internal/archive"
	"imgvault/internal/catalog"
	"imgvault/internal/config"
	"imgvault/internal/experiment"
	"imgvault/internal/labeler"
	"imgvault/internal/logging"
	"imgvault/internal/metadata"
	"imgvault/internal/services"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	requestID  string

	store *catalog.Store
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		requestID:    uuid.NewString(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "load config", path, err)
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrStorageUnavailable, "cli", "ensure directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger once, rotating and pruning old log
// files first. Logger failures fall back to a no-op logger.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		_, rotateErr := logging.RotateIfLarge(cfg.Paths.LogDir, time.Now())
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger = logger.With(logging.String(logging.FieldCorrelationID, c.requestID))
		if rotateErr != nil {
			logger.Warn("log rotation failed", logging.Error(rotateErr))
		}
		if removed := logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays); removed > 0 {
			logger.Debug("pruned old logs", logging.Int("removed", removed))
		}
		c.logger = logger
	})
	return c.logger
}

// commandCtx annotates the cobra context with the operation and correlation id.
func (c *commandContext) commandCtx(cmd *cobra.Command, operation string) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithRequestID(ctx, c.requestID)
	return services.WithOperation(ctx, operation)
}

func (c *commandContext) openCatalog(ctx context.Context) (*catalog.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := catalog.OpenPath(ctx, cfg.Paths.CatalogPath, catalog.WithLogger(c.ensureLogger()))
	if err != nil {
		return nil, err
	}
	c.store = store
	return store, nil
}

// newLabeler returns nil when AI labeling is disabled or has no key.
func (c *commandContext) newLabeler(cfg *config.Config) metadata.Labeler {
	if !cfg.LabelerReady() {
		return nil
	}
	lc := cfg.GetLabeler()
	return labeler.New(labeler.Config{
		APIKey:         lc.APIKey,
		BaseURL:        lc.BaseURL,
		Model:          lc.Model,
		Referer:        lc.Referer,
		Title:          lc.Title,
		TimeoutSeconds: lc.TimeoutSeconds,
	})
}

func (c *commandContext) service(ctx context.Context) (*experiment.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := c.openCatalog(ctx)
	if err != nil {
		return nil, err
	}
	logger := c.ensureLogger()
	resolver := metadata.NewResolver(c.newLabeler(cfg), cfg.Archive.SidecarName, logger)
	writer, err := archive.NewWriter(cfg, resolver, logger)
	if err != nil {
		return nil, err
	}
	reader := archive.NewReader(cfg.Archive.SidecarName, logger)
	return experiment.New(cfg, store, writer, reader, logger), nil
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}
