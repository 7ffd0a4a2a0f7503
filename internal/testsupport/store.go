package testsupport

import (
	"testing"
	"time"

	"soundcatalog/internal/catalog"
	"soundcatalog/internal/config"
	"soundcatalog/internal/history"
)

// MustOpenCatalog opens the configured catalog for tests and registers
// cleanup. Retries use a one millisecond base.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg.Paths.CatalogPath, catalog.Options{
		BackupDir:  cfg.Paths.BackupDir,
		BackupKeep: cfg.Processing.BackupKeep,
		MaxRetries: cfg.Processing.MaxRetries,
		RetryBase:  time.Millisecond,
	})
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOpenHistory opens the configured run history database for tests.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.Paths.HistoryPath)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
