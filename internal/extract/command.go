package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"soundcatalog/internal/features"
	"soundcatalog/internal/logging"
)

// analyzerOutput is the JSON object an analyzer prints. Null or missing
// fields mean the measurement is unavailable; a tempo of 0 means the
// analyzer looked for a pulse and found none.
type analyzerOutput struct {
	Duration          *float64  `json:"duration"`
	Tempo             *float64  `json:"tempo"`
	BeatCount         *int      `json:"beat_count"`
	OnsetStrength     *float64  `json:"onset_strength"`
	ZeroCrossingRate  *float64  `json:"zero_crossing_rate"`
	RMSEnergy         *float64  `json:"rms_energy"`
	SpectralCentroid  *float64  `json:"spectral_centroid"`
	SpectralBandwidth *float64  `json:"spectral_bandwidth"`
	SpectralRolloff   *float64  `json:"spectral_rolloff"`
	SpectralContrast  *float64  `json:"spectral_contrast"`
	SpectralFlatness  *float64  `json:"spectral_flatness"`
	HarmonicRatio     *float64  `json:"harmonic_ratio"`
	Chroma            []float64 `json:"chroma_features"`
	MFCC              []float64 `json:"mfcc_features"`
	DynamicRange      *float64  `json:"dynamic_range"`
	Loudness          *float64  `json:"loudness"`
	PeakAmplitude     *float64  `json:"peak_amplitude"`
	SampleRate        *int      `json:"sample_rate"`
	Channels          *int      `json:"channels"`
}

func optFloat(v *float64) features.Float {
	if v == nil {
		return features.Float{}
	}
	return features.F(*v)
}

func optInt(v *int) features.Int {
	if v == nil {
		return features.Int{}
	}
	return features.I(*v)
}

func (o analyzerOutput) vector() features.Vector {
	return features.Vector{
		DurationSeconds:       optFloat(o.Duration),
		TempoBPM:              optFloat(o.Tempo),
		BeatCount:             optInt(o.BeatCount),
		OnsetStrength:         optFloat(o.OnsetStrength),
		ZeroCrossingRate:      optFloat(o.ZeroCrossingRate),
		RMSEnergy:             optFloat(o.RMSEnergy),
		SpectralCentroidMean:  optFloat(o.SpectralCentroid),
		SpectralBandwidthMean: optFloat(o.SpectralBandwidth),
		SpectralRolloffMean:   optFloat(o.SpectralRolloff),
		SpectralContrastMean:  optFloat(o.SpectralContrast),
		SpectralFlatnessMean:  optFloat(o.SpectralFlatness),
		HarmonicRatio:         optFloat(o.HarmonicRatio),
		Chroma:                o.Chroma,
		MFCC:                  o.MFCC,
		DynamicRange:          optFloat(o.DynamicRange),
		Loudness:              optFloat(o.Loudness),
		PeakAmplitude:         optFloat(o.PeakAmplitude),
		SampleRate:            optInt(o.SampleRate),
		Channels:              optInt(o.Channels),
	}
}

// DecodeAnalyzerOutput parses one analyzer JSON object.
func DecodeAnalyzerOutput(data []byte) (features.Vector, error) {
	var out analyzerOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return features.Vector{}, fmt.Errorf("%w: decode analyzer output: %v", features.ErrInvalidFeatureVector, err)
	}
	return out.vector(), nil
}

// CommandExtractor runs "<Command> <Args...> <path>" and decodes its stdout.
// When Probe is set, duration, sample rate, and channels the analyzer left
// out are filled from ffprobe.
type CommandExtractor struct {
	Command string
	Args    []string
	Timeout time.Duration
	Probe   *ProbeExtractor
	Logger  *slog.Logger

	run Runner
}

// Extract analyzes one file.
func (c *CommandExtractor) Extract(ctx context.Context, path string) (features.Vector, error) {
	run := c.run
	if run == nil {
		run = execRunner
	}
	runCtx, cancel := withTimeout(ctx, c.Timeout)
	defer cancel()

	args := append(append([]string(nil), c.Args...), path)
	output, err := run(runCtx, c.Command, args...)
	if err != nil {
		return features.Vector{}, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, path, err)
	}
	vec, err := DecodeAnalyzerOutput(output)
	if err != nil {
		return features.Vector{}, fmt.Errorf("%s: %w", path, err)
	}

	if c.Probe != nil && (!vec.DurationSeconds.Valid || !vec.SampleRate.Valid || !vec.Channels.Valid) {
		meta, err := c.Probe.Extract(ctx, path)
		if err != nil {
			logging.NewComponentLogger(c.Logger, "extract").Debug("ffprobe enrichment failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
			)
			return vec, nil
		}
		if !vec.DurationSeconds.Valid {
			vec.DurationSeconds = meta.DurationSeconds
		}
		if !vec.SampleRate.Valid {
			vec.SampleRate = meta.SampleRate
		}
		if !vec.Channels.Valid {
			vec.Channels = meta.Channels
		}
	}
	return vec, nil
}
