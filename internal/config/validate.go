package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.Thresholds().Validate(); err != nil {
		return err
	}
	if err := c.validateExtractor(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CatalogPath) == "" {
		return errors.New("paths.catalog_path must be set")
	}
	if strings.TrimSpace(c.Paths.BackupDir) == "" {
		return errors.New("paths.backup_dir must be set")
	}
	return nil
}

func (c *Config) validateSources() error {
	seen := make(map[string]struct{}, len(c.Sources))
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("sources[%d].name must be set", i)
		}
		if src.Path == "" {
			return fmt.Errorf("sources[%d].path must be set", i)
		}
		key := strings.ToLower(src.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("sources[%d].name %q is duplicated", i, src.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (c *Config) validateProcessing() error {
	p := c.Processing
	if err := ensurePositiveMap(map[string]int{
		"processing.batch_size":      p.BatchSize,
		"processing.workers":         p.Workers,
		"processing.backup_interval": p.BackupInterval,
	}); err != nil {
		return err
	}
	if p.MaxRetries < 0 {
		return errors.New("processing.max_retries must be >= 0")
	}
	if p.BackupKeep < 0 {
		return errors.New("processing.backup_keep must be >= 0 (0 keeps every backup)")
	}
	if p.TestMode && p.TestSampleSize <= 0 {
		return errors.New("processing.test_sample_size must be positive when test_mode is enabled")
	}
	return nil
}

func (c *Config) validateExtractor() error {
	if c.Extractor.TimeoutSeconds <= 0 {
		return errors.New("extractor.timeout_seconds must be positive")
	}
	if c.Extractor.MaxPerSecond < 0 {
		return errors.New("extractor.max_per_second must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
