package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"soundcatalog/internal/classify"
	"soundcatalog/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	CatalogPath string `toml:"catalog_path"`
	BackupDir   string `toml:"backup_dir"`
	LogDir      string `toml:"log_dir"`
	HistoryPath string `toml:"history_path"`
	KitFile     string `toml:"kit_file"`
}

// Source is one named root directory of audio files.
type Source struct {
	Name        string `toml:"name"`
	Path        string `toml:"path"`
	URLTemplate string `toml:"url_template"`
}

// Processing contains batch and resilience settings.
type Processing struct {
	BatchSize      int      `toml:"batch_size"`
	Workers        int      `toml:"workers"`
	MaxRetries     int      `toml:"max_retries"`
	BackupInterval int      `toml:"backup_interval"`
	BackupKeep     int      `toml:"backup_keep"`
	TestMode       bool     `toml:"test_mode"`
	TestSampleSize int      `toml:"test_sample_size"`
	Extensions     []string `toml:"extensions"`
}

// Classifier mirrors classify.Thresholds for TOML decoding.
type Classifier struct {
	DurationSongSeconds   float64 `toml:"duration_song_seconds"`
	DurationEffectSeconds float64 `toml:"duration_effect_seconds"`
	TempoMinBPM           float64 `toml:"tempo_min_bpm"`
	BeatCountSong         int     `toml:"beat_count_song"`
	BeatCountEffect       int     `toml:"beat_count_effect"`
	HarmonicRatioSong     float64 `toml:"harmonic_ratio_song"`
	HarmonicRatioEffect   float64 `toml:"harmonic_ratio_effect"`
	FlatnessTonal         float64 `toml:"flatness_tonal"`
	FlatnessNoisy         float64 `toml:"flatness_noisy"`
	DecisivenessMargin    int     `toml:"decisiveness_margin"`
}

// Extractor configures the feature extraction collaborator.
type Extractor struct {
	// Command prints a JSON feature object for the file path appended to Args.
	// When empty, only ffprobe metadata (duration, sample rate, channels) is used.
	Command        string   `toml:"command"`
	Args           []string `toml:"args"`
	FFprobeBinary  string   `toml:"ffprobe_binary"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	MaxPerSecond   float64  `toml:"max_per_second"`
}

// Storage configures remote reference generation.
type Storage struct {
	Bucket      string `toml:"bucket"`
	URLTemplate string `toml:"url_template"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for soundcatalog.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Sources    []Source   `toml:"sources"`
	Processing Processing `toml:"processing"`
	Classifier Classifier `toml:"classifier"`
	Extractor  Extractor  `toml:"extractor"`
	Storage    Storage    `toml:"storage"`
	Logging    Logging    `toml:"logging"`
}

// Load reads the configuration at path and returns it with every path
// expanded, the file it resolved, and whether that file existed. See locate
// for the search order when path is empty; with no file found the defaults
// are used and the user config location is reported.
func Load(path string) (*Config, string, bool, error) {
	target, found, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if found {
		if err := decodeFile(target, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, target, found, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	err = dec.Decode(cfg)
	var (
		strict *toml.StrictMissingError
		syntax *toml.DecodeError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &strict):
		return fmt.Errorf("config %s: unknown keys:\n%s", path, strict.String())
	case errors.As(err, &syntax):
		row, col := syntax.Position()
		return fmt.Errorf("config %s:%d:%d: %s", path, row, col, syntax.Error())
	}
	return fmt.Errorf("parse config %s: %w", path, err)
}

// ErrConfigExists is returned by WriteSample when the target exists and
// overwrite was not requested.
var ErrConfigExists = errors.New("config file already exists")

// WriteSample writes the commented sample configuration to path, or to the
// default location when path is empty, and returns the resolved target.
func WriteSample(path string, overwrite bool) (string, error) {
	var (
		target string
		err    error
	)
	if strings.TrimSpace(path) == "" {
		target, err = DefaultConfigPath()
	} else {
		target, err = ExpandPath(path)
	}
	if err != nil {
		return "", err
	}
	if !overwrite {
		if _, err := os.Stat(target); err == nil {
			return target, fmt.Errorf("%w: %s", ErrConfigExists, target)
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return target, fmt.Errorf("create config directory: %w", err)
	}
	err = fileutil.WriteAtomic(target, func(w io.Writer) error {
		_, err := io.WriteString(w, sampleConfig)
		return err
	})
	return target, err
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Paths.CatalogPath), c.Paths.BackupDir, c.Paths.LogDir}
	if c.Paths.HistoryPath != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Thresholds converts the classifier section into classify thresholds.
func (c *Config) Thresholds() classify.Thresholds {
	return classify.Thresholds{
		DurationSongSeconds:   c.Classifier.DurationSongSeconds,
		DurationEffectSeconds: c.Classifier.DurationEffectSeconds,
		TempoMinBPM:           c.Classifier.TempoMinBPM,
		BeatCountSong:         c.Classifier.BeatCountSong,
		BeatCountEffect:       c.Classifier.BeatCountEffect,
		HarmonicRatioSong:     c.Classifier.HarmonicRatioSong,
		HarmonicRatioEffect:   c.Classifier.HarmonicRatioEffect,
		FlatnessTonal:         c.Classifier.FlatnessTonal,
		FlatnessNoisy:         c.Classifier.FlatnessNoisy,
		DecisivenessMargin:    c.Classifier.DecisivenessMargin,
	}
}

// FindSource returns the configured source with the given name.
func (c *Config) FindSource(name string) (Source, bool) {
	for _, src := range c.Sources {
		if strings.EqualFold(src.Name, name) {
			return src, true
		}
	}
	return Source{}, false
}
