package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"soundcatalog/internal/catalog"
	"soundcatalog/internal/classify"
	"soundcatalog/internal/testsupport"
)

func TestConfigInitShowAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.cfg.Paths.CatalogPath)
	requireContains(t, out, "decisiveness_margin")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestRunThenInspectCatalog(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithKitFile("sfx_door.wav | Door Slam | Foley | 2s | door | Heavy door\n"))
	env.addAudio(t, "song_theme.mp3", "sfx_door.wav", "corrupt.wav")

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	requireContains(t, out, "Run summary")
	requireContains(t, out, "corrupt.wav")

	var records []catalog.Record
	for rec, err := range catalog.Records(env.cfg.Paths.CatalogPath) {
		if err != nil {
			t.Fatalf("read catalog: %v", err)
		}
		records = append(records, rec)
	}
	if len(records) != 2 {
		t.Fatalf("catalog rows = %d, want 2", len(records))
	}
	for _, rec := range records {
		if strings.HasPrefix(rec.Filename, "sfx_door") && rec.Title != "Door Slam" {
			t.Fatalf("kit title not applied: %+v", rec)
		}
	}

	out, _, err = runCLI(t, []string{"run", "--resume"}, env.configPath)
	if err != nil {
		t.Fatalf("resume run: %v", err)
	}
	requireContains(t, out, "Already cataloged")

	out, _, err = runCLI(t, []string{"stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, string(classify.Song))
	requireContains(t, out, "library")

	dst := filepath.Join(t.TempDir(), "songs.csv")
	out, _, err = runCLI(t, []string{"export", "--category", "song", dst}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, "Exported 1 records")

	out, _, err = runCLI(t, []string{"validate"}, env.configPath)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	requireContains(t, out, "is valid: 2 rows")

	out, _, err = runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if strings.Count(out, "done") != 2 {
		t.Fatalf("expected two finished runs, got %q", out)
	}

	out, _, err = runCLI(t, []string{"logs", "-n", "200"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "run finished")

	out, _, err = runCLI(t, []string{"snapshot"}, env.configPath)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	requireContains(t, out, "Snapshot written to")
	out, _, err = runCLI(t, []string{"snapshot", "--list"}, env.configPath)
	if err != nil {
		t.Fatalf("snapshot --list: %v", err)
	}
	requireContains(t, out, "catalog-")
}

func TestValidateRepairsTornRow(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addAudio(t, "song_theme.mp3")
	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	f, err := os.OpenFile(env.cfg.Paths.CatalogPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("half,a,row"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	_, _, err = runCLI(t, []string{"validate"}, env.configPath)
	if !errors.Is(err, catalog.ErrCorruptStore) {
		t.Fatalf("validate err = %v, want ErrCorruptStore", err)
	}
	out, _, err := runCLI(t, []string{"validate", "--repair"}, env.configPath)
	if err != nil {
		t.Fatalf("validate --repair: %v", err)
	}
	requireContains(t, out, "Repaired")
	requireContains(t, out, "is valid: 1 rows")
}

func TestClassifyCommandReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addAudio(t, "song_theme.mp3", "mystery.wav")

	out, _, err := runCLI(t, []string{"classify", "-v",
		filepath.Join(env.sourceDir, "song_theme.mp3"),
		filepath.Join(env.sourceDir, "mystery.wav"),
	}, env.configPath)
	if err == nil {
		t.Fatal("expected an error for the undecodable file")
	}
	requireContains(t, out, "song_theme.mp3")
	requireContains(t, out, "duration=30/0")
	requireContains(t, out, "mystery.wav")
}

func TestResolveRoots(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithSource("foley"))

	roots, err := resolveRoots(env.cfg, nil)
	if err != nil {
		t.Fatalf("resolveRoots: %v", err)
	}
	if len(roots) != 2 || roots[0].Name != "library" || roots[1].Name != "foley" {
		t.Fatalf("roots = %+v", roots)
	}

	roots, err = resolveRoots(env.cfg, []string{env.cfg.Sources[1].Path})
	if err != nil || roots[0].Name != "foley" {
		t.Fatalf("configured path root = %+v, %v", roots, err)
	}

	mixkit := filepath.Join(t.TempDir(), "Mixkit")
	roots, err = resolveRoots(env.cfg, []string{"fx=" + env.sourceDir, mixkit})
	if err != nil {
		t.Fatalf("resolveRoots: %v", err)
	}
	if roots[0].Name != "fx" || roots[0].Path != env.sourceDir {
		t.Fatalf("named root = %+v", roots[0])
	}
	if roots[1].Name != "mixkit" {
		t.Fatalf("inferred root = %+v", roots[1])
	}

	if _, err := resolveRoots(env.cfg, []string{"empty="}); err == nil {
		t.Fatal("expected error for an empty path")
	}
}

func TestDoctorAndRunGateOnMissingAnalyzer(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "Analyzer")

	env.cfg.Extractor.Command = filepath.Join(t.TempDir(), "no-such-analyzer")
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err = runCLI(t, []string{"doctor"}, env.configPath)
	if err == nil {
		t.Fatalf("expected doctor to fail, got %q", out)
	}
	requireContains(t, out, "FAIL")

	_, _, err = runCLI(t, []string{"run"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "preflight failed") {
		t.Fatalf("run err = %v, want preflight failure", err)
	}
}
