package config

import "soundcatalog/internal/classify"

const (
	defaultCatalogPath    = "~/.local/share/soundcatalog/catalog.csv"
	defaultBackupDir      = "~/.local/share/soundcatalog/backups"
	defaultLogDir         = "~/.local/share/soundcatalog/logs"
	defaultHistoryPath    = "~/.local/share/soundcatalog/history.db"
	defaultBatchSize      = 10
	defaultWorkers        = 4
	defaultMaxRetries     = 3
	defaultBackupInterval = 50
	defaultBackupKeep     = 10
	defaultTestSampleSize = 5
	defaultFFprobeBinary  = "ffprobe"
	defaultExtractTimeout = 120
	defaultBucket         = "soundcatalog"
	defaultURLTemplate    = "https://storage.googleapis.com/{bucket}/{source}/{filename}"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultRetentionDays  = 30
)

// DefaultExtensions is the audio file allow-list used when none is configured.
var DefaultExtensions = []string{".mp3", ".wav", ".ogg", ".flac", ".m4a", ".aac"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	th := classify.DefaultThresholds()
	return Config{
		Paths: Paths{
			CatalogPath: defaultCatalogPath,
			BackupDir:   defaultBackupDir,
			LogDir:      defaultLogDir,
			HistoryPath: defaultHistoryPath,
		},
		Processing: Processing{
			BatchSize:      defaultBatchSize,
			Workers:        defaultWorkers,
			MaxRetries:     defaultMaxRetries,
			BackupInterval: defaultBackupInterval,
			BackupKeep:     defaultBackupKeep,
			TestSampleSize: defaultTestSampleSize,
			Extensions:     append([]string(nil), DefaultExtensions...),
		},
		Classifier: Classifier{
			DurationSongSeconds:   th.DurationSongSeconds,
			DurationEffectSeconds: th.DurationEffectSeconds,
			TempoMinBPM:           th.TempoMinBPM,
			BeatCountSong:         th.BeatCountSong,
			BeatCountEffect:       th.BeatCountEffect,
			HarmonicRatioSong:     th.HarmonicRatioSong,
			HarmonicRatioEffect:   th.HarmonicRatioEffect,
			FlatnessTonal:         th.FlatnessTonal,
			FlatnessNoisy:         th.FlatnessNoisy,
			DecisivenessMargin:    th.DecisivenessMargin,
		},
		Extractor: Extractor{
			FFprobeBinary:  defaultFFprobeBinary,
			TimeoutSeconds: defaultExtractTimeout,
		},
		Storage: Storage{
			Bucket:      defaultBucket,
			URLTemplate: defaultURLTemplate,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetentionDays,
		},
	}
}
