package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"soundcatalog/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Outputs lists "stderr", "stdout" or file paths. Empty means stderr.
	Outputs []string
	// Source appends the calling file and line to each record.
	Source bool
}

// Sink is a configured logger together with the files it appends to.
type Sink struct {
	Logger *slog.Logger
	// Path is the per-run log file, empty when none was opened.
	Path  string
	files []*os.File
}

// Close releases the log files. The logger must not be used afterwards.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, f := range s.files {
		errs = append(errs, f.Close())
	}
	s.files = nil
	return errors.Join(errs...)
}

// New builds a logger from opts.
func New(opts Options) (*Sink, error) {
	var level slog.Level
	switch strings.ToLower(strings.TrimSpace(opts.Level)) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format != "" && format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	sink := &Sink{}
	w, err := sink.open(opts.Outputs)
	if err != nil {
		sink.Close()
		return nil, err
	}

	var handler slog.Handler
	if format == "json" {
		handler = newJSONHandler(w, level, opts.Source)
	} else {
		handler = newConsoleHandler(w, level, opts.Source)
	}
	sink.Logger = slog.New(handler)
	return sink, nil
}

func (s *Sink) open(outputs []string) (io.Writer, error) {
	var writers []io.Writer
	seen := make(map[string]bool, len(outputs))
	for _, out := range outputs {
		out = strings.TrimSpace(out)
		if out == "" || seen[out] {
			continue
		}
		seen[out] = true
		switch out {
		case "stderr":
			writers = append(writers, os.Stderr)
		case "stdout":
			writers = append(writers, os.Stdout)
		default:
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return nil, fmt.Errorf("create log directory: %w", err)
			}
			f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", out, err)
			}
			s.files = append(s.files, f)
			writers = append(writers, f)
		}
	}
	switch len(writers) {
	case 0:
		return os.Stderr, nil
	case 1:
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

// NewFromConfig creates a logger writing to stderr and, when a log directory
// is configured and runID is set, to that run's log file.
func NewFromConfig(cfg *config.Config, runID string) (*Sink, error) {
	if cfg == nil {
		return New(Options{})
	}
	outputs := []string{"stderr"}
	var path string
	if cfg.Paths.LogDir != "" && runID != "" {
		path = RunLogPath(cfg.Paths.LogDir, runID)
		outputs = append(outputs, path)
	}
	sink, err := New(Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Outputs: outputs,
	})
	if err != nil {
		return nil, err
	}
	sink.Path = path
	return sink, nil
}

// RunLogPath returns the per-run log file location inside dir.
func RunLogPath(dir, runID string) string {
	return filepath.Join(dir, "soundcatalog-"+runID+".log")
}

func newJSONHandler(w io.Writer, level slog.Leveler, source bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: source,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
			case slog.LevelKey:
				return slog.String(slog.LevelKey, strings.ToLower(a.Value.String()))
			case slog.SourceKey:
				if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
					return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return a
		},
	})
}
