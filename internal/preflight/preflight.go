package preflight

import (
	"context"
	"fmt"

	"soundcatalog/internal/config"
	"soundcatalog/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Required bool
	Detail   string
}

// RunAll executes every check applicable to cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		required(CheckDirectoryAccess("Catalog directory", catalogDir(cfg))),
		required(CheckDirectoryAccess("Backup directory", cfg.Paths.BackupDir)),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, required(CheckDirectoryAccess("Log directory", cfg.Paths.LogDir)))
	}
	results = append(results, required(CheckCatalog(cfg.Paths.CatalogPath)))

	for _, src := range cfg.Sources {
		results = append(results, CheckSourceAccess(fmt.Sprintf("Source %q", src.Name), src.Path))
	}
	if cfg.Paths.KitFile != "" {
		results = append(results, CheckFileReadable("Kit metadata", cfg.Paths.KitFile))
	}

	for _, check := range CheckExtractorDeps(ctx, cfg) {
		results = append(results, Result{
			Name:     check.Name,
			Passed:   check.Found(),
			Required: !check.Optional,
			Detail:   toolDetail(check),
		})
	}
	return results
}

// Blocking returns the required checks that failed.
func Blocking(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Required && !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func required(r Result) Result {
	r.Required = true
	return r
}

func toolDetail(c deps.Check) string {
	if !c.Found() {
		return fmt.Sprintf("%s; needed for %s", c.Problem, c.Purpose)
	}
	if c.Version != "" {
		return fmt.Sprintf("%s (%s)", c.Path, c.Version)
	}
	return c.Path
}
