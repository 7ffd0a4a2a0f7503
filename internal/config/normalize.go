package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSources(); err != nil {
		return err
	}
	c.normalizeProcessing()
	c.normalizeExtractor()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"paths.catalog_path", &c.Paths.CatalogPath},
		{"paths.backup_dir", &c.Paths.BackupDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.history_path", &c.Paths.HistoryPath},
		{"paths.kit_file", &c.Paths.KitFile},
	}
	for _, f := range fields {
		trimmed := strings.TrimSpace(*f.value)
		expanded, err := ExpandPath(trimmed)
		if err != nil {
			return fmt.Errorf("normalize %s: %w", f.name, err)
		}
		*f.value = expanded
	}
	return nil
}

func (c *Config) normalizeSources() error {
	for i := range c.Sources {
		src := &c.Sources[i]
		src.Name = strings.TrimSpace(src.Name)
		src.URLTemplate = strings.TrimSpace(src.URLTemplate)
		expanded, err := ExpandPath(strings.TrimSpace(src.Path))
		if err != nil {
			return fmt.Errorf("normalize sources[%d].path: %w", i, err)
		}
		src.Path = expanded
	}
	return nil
}

func (c *Config) normalizeProcessing() {
	if len(c.Processing.Extensions) == 0 {
		c.Processing.Extensions = append([]string(nil), DefaultExtensions...)
	}
	seen := make(map[string]struct{}, len(c.Processing.Extensions))
	out := c.Processing.Extensions[:0]
	for _, ext := range c.Processing.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	c.Processing.Extensions = out
}

func (c *Config) normalizeExtractor() {
	c.Extractor.Command = strings.TrimSpace(c.Extractor.Command)
	c.Extractor.FFprobeBinary = strings.TrimSpace(c.Extractor.FFprobeBinary)
	if c.Extractor.FFprobeBinary == "" {
		c.Extractor.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
