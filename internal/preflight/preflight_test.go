package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"soundcatalog/internal/catalog"
	"soundcatalog/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSourceAccess_Missing(t *testing.T) {
	result := CheckSourceAccess("src", filepath.Join(t.TempDir(), "gone"))
	if result.Passed || !strings.Contains(result.Detail, "skips") {
		t.Fatalf("result = %+v", result)
	}
}

func TestCheckCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.csv")

	if r := CheckCatalog(path); !r.Passed {
		t.Fatalf("missing catalog should pass: %s", r.Detail)
	}

	header := strings.Join(catalog.Header(catalog.SchemaVersion), ",") + "\n"
	if err := os.WriteFile(path, []byte(header+"torn"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckCatalog(path); !r.Passed || !strings.Contains(r.Detail, "torn") {
		t.Fatalf("torn final row should pass with a note: %+v", r)
	}

	if err := os.WriteFile(path, []byte("not,a,catalog\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckCatalog(path); r.Passed {
		t.Fatal("unknown header should fail")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CatalogPath = filepath.Join(base, "catalog.csv")
	cfg.Paths.BackupDir = filepath.Join(base, "backups")
	cfg.Paths.LogDir = ""
	cfg.Sources = []config.Source{{Name: "lib", Path: filepath.Join(base, "missing")}}
	if err := os.MkdirAll(cfg.Paths.BackupDir, 0o755); err != nil {
		t.Fatal(err)
	}

	analyzer := filepath.Join(base, "analyzer")
	if err := os.WriteFile(analyzer, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg.Extractor.Command = analyzer
	cfg.Extractor.FFprobeBinary = "clearly-not-present-ffprobe"
	return &cfg
}

func TestRunAll_MissingSourceAndOptionalProbeDoNotBlock(t *testing.T) {
	cfg := testConfig(t)

	results := RunAll(context.Background(), cfg)
	if blocking := Blocking(results); len(blocking) != 0 {
		t.Fatalf("unexpected blocking checks: %+v", blocking)
	}
	names := map[string]Result{}
	for _, r := range results {
		names[r.Name] = r
	}
	if r := names[`Source "lib"`]; r.Passed || r.Required {
		t.Fatalf("source check = %+v", r)
	}
	if r := names["FFprobe"]; r.Passed || r.Required {
		t.Fatalf("ffprobe check = %+v", r)
	}
	if r := names["Analyzer"]; !r.Passed || !r.Required {
		t.Fatalf("analyzer check = %+v", r)
	}
}

func TestRunAll_ProbeRequiredWithoutAnalyzer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Extractor.Command = ""

	blocking := Blocking(RunAll(context.Background(), cfg))
	if len(blocking) != 1 || blocking[0].Name != "FFprobe" {
		t.Fatalf("blocking = %+v", blocking)
	}
}
