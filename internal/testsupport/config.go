package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"soundcatalog/internal/config"
)

// Option adjusts the fixture NewConfig builds.
type Option func(*fixture)

type fixture struct {
	t    testing.TB
	base string
	cfg  *config.Config
}

// NewConfig returns a configuration rooted in a fresh temp directory:
//
//	base/catalog/catalog.csv   catalog
//	base/catalog/backups/      snapshots
//	base/logs/                 run logs
//	base/history.db            run history
//	base/library/              the "library" source
//
// Batches are small and run two workers so tests cross batch boundaries.
func NewConfig(t testing.TB, opts ...Option) *config.Config {
	t.Helper()

	cfg := config.Default()
	f := &fixture{t: t, base: t.TempDir(), cfg: &cfg}
	cfg.Paths.CatalogPath = f.path("catalog", "catalog.csv")
	cfg.Paths.BackupDir = f.path("catalog", "backups")
	cfg.Paths.LogDir = f.path("logs")
	cfg.Paths.HistoryPath = f.path("history.db")
	cfg.Processing.BatchSize = 2
	cfg.Processing.Workers = 2
	cfg.Sources = nil
	WithSource("library")(f)

	for _, opt := range opts {
		opt(f)
	}
	return f.cfg
}

func (f *fixture) path(elem ...string) string {
	return filepath.Join(append([]string{f.base}, elem...)...)
}

func (f *fixture) write(path, content string, mode os.FileMode) {
	f.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		f.t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		f.t.Fatalf("write %s: %v", path, err)
	}
}

// WithSource adds a source called name at base/name and creates it.
func WithSource(name string) Option {
	return func(f *fixture) {
		dir := f.path(name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			f.t.Fatalf("mkdir source %s: %v", name, err)
		}
		f.cfg.Sources = append(f.cfg.Sources, config.Source{Name: name, Path: dir})
	}
}

// WithKitFile writes content as the kit metadata file.
func WithKitFile(content string) Option {
	return func(f *fixture) {
		path := f.path("kit.txt")
		f.write(path, content, 0o644)
		f.cfg.Paths.KitFile = path
	}
}

// WithAnalyzer installs script as the external feature analyzer at
// base/bin/analyzer.
func WithAnalyzer(script string) Option {
	return func(f *fixture) {
		path := f.path("bin", "analyzer")
		f.write(path, script, 0o755)
		f.cfg.Extractor.Command = path
		f.cfg.Extractor.TimeoutSeconds = 10
	}
}

// BaseDir returns the temp directory backing a config from NewConfig.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
