package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"soundcatalog/internal/catalog"
	"soundcatalog/internal/config"
	"soundcatalog/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configRead bool
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configRead = exists
	})
	return c.config, c.configErr
}

// logger returns a console logger for short-lived commands. Runs use
// newRunLogger so their output also lands in a per-run file.
func (c *commandContext) logger() *slog.Logger {
	cfg, _ := c.ensureConfig()
	if cfg == nil {
		return logging.NewNop()
	}
	sink, err := logging.NewFromConfig(cfg, "")
	if err != nil {
		return logging.NewNop()
	}
	return sink.Logger
}

// newRunLogger opens the per-run log for runID and prunes expired ones. The
// caller closes the returned sink.
func (c *commandContext) newRunLogger(runID string) (*logging.Sink, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	sink, err := logging.NewFromConfig(cfg, runID)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	logging.CleanupOldLogs(sink.Logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, sink.Path)
	return sink, nil
}

// openCatalog opens the catalog at path, or the configured catalog when
// path is empty.
func (c *commandContext) openCatalog(path string, logger *slog.Logger) (*catalog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = cfg.Paths.CatalogPath
	}
	return catalog.Open(path, catalog.Options{
		BackupDir:  cfg.Paths.BackupDir,
		BackupKeep: cfg.Processing.BackupKeep,
		MaxRetries: cfg.Processing.MaxRetries,
		AutoRepair: true,
		Logger:     logger,
	})
}

func (c *commandContext) catalogPath(override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return config.ExpandPath(override)
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return cfg.Paths.CatalogPath, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
