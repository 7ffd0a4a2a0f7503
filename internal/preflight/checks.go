package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"soundcatalog/internal/catalog"
	"soundcatalog/internal/config"
	"soundcatalog/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSourceAccess verifies that a source root can be listed. Write access is
// not needed.
func CheckSourceAccess(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return Result{Name: name, Detail: fmt.Sprintf("%s (missing; the scan skips it)", path)}
	case err != nil:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	case !info.IsDir():
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckFileReadable verifies that a regular file can be opened for reading.
func CheckFileReadable(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckCatalog validates the catalog file. A missing file passes because the
// first run creates it; a torn final row passes because opening the catalog
// for a run repairs it.
func CheckCatalog(path string) Result {
	const name = "Catalog file"

	report, err := catalog.Validate(path)
	var corrupt *catalog.CorruptStoreError
	switch {
	case errors.Is(err, os.ErrNotExist):
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", path)}
	case errors.As(err, &corrupt) && corrupt.Recoverable:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (torn final row at row %d; repaired on open)", path, corrupt.Row)}
	case err != nil:
		return Result{Name: name, Detail: err.Error()}
	case report.Outdated():
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d rows, schema v%d; migrated on open)", path, report.Rows, report.Version)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d rows)", path, report.Rows)}
}

// CheckExtractorDeps resolves the programs the configured extractor runs.
// ffprobe is optional when an analyzer command supplies the features.
func CheckExtractorDeps(ctx context.Context, cfg *config.Config) []deps.Check {
	tools := []deps.Tool{{
		Name:        "FFprobe",
		Command:     cfg.Extractor.FFprobeBinary,
		Purpose:     "duration, sample rate and channel probing",
		Optional:    cfg.Extractor.Command != "",
		VersionArgs: []string{"-version"},
	}}
	if cfg.Extractor.Command != "" {
		tools = append(tools, deps.Tool{
			Name:    "Analyzer",
			Command: cfg.Extractor.Command,
			Purpose: "feature extraction",
		})
	}
	return deps.Resolve(ctx, tools)
}

func catalogDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CatalogPath)
}
