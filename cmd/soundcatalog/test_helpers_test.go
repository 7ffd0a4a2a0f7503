package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"soundcatalog/internal/config"
	"soundcatalog/internal/testsupport"
)

const analyzerScript = `#!/bin/sh
for last; do :; done
case "$(basename "$last")" in
  song*) echo '{"duration":180,"tempo":120,"beat_count":300,"harmonic_ratio":0.8,"spectral_flatness":0.05,"sample_rate":44100,"channels":2}' ;;
  sfx*) echo '{"duration":2,"tempo":0,"beat_count":0,"harmonic_ratio":0.1,"spectral_flatness":0.5,"sample_rate":44100,"channels":1}' ;;
  *) echo "cannot decode $last" >&2; exit 3 ;;
esac
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	sourceDir  string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.Option) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, append([]testsupport.Option{testsupport.WithAnalyzer(analyzerScript)}, opts...)...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		sourceDir:  cfg.Sources[0].Path,
	}
}

func (e *cliTestEnv) addAudio(t *testing.T, names ...string) {
	t.Helper()
	mtime := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, name := range names {
		testsupport.WriteAudio(t, filepath.Join(e.sourceDir, name), int64(64+i), mtime)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
