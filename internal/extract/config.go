package extract

import (
	"log/slog"
	"time"

	"soundcatalog/internal/config"
)

// FromConfig builds the configured extractor: the analyzer command enriched
// by ffprobe when a command is set, ffprobe alone otherwise, rate limited by
// extractor.max_per_second.
func FromConfig(cfg *config.Config, logger *slog.Logger) Extractor {
	timeout := time.Duration(cfg.Extractor.TimeoutSeconds) * time.Second
	probe := &ProbeExtractor{Binary: cfg.Extractor.FFprobeBinary, Timeout: timeout}

	var ex Extractor = probe
	if cfg.Extractor.Command != "" {
		ex = &CommandExtractor{
			Command: cfg.Extractor.Command,
			Args:    cfg.Extractor.Args,
			Timeout: timeout,
			Probe:   probe,
			Logger:  logger,
		}
	}
	return NewLimited(ex, cfg.Extractor.MaxPerSecond)
}
