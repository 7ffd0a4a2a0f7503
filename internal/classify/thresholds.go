package classify

import (
	"errors"
	"fmt"
)

// Thresholds holds the fixed boundaries for each factor. Values between a
// factor's song and effect boundaries fall in the inconclusive band.
type Thresholds struct {
	// Songs run longer than DurationSongSeconds; effects shorter than DurationEffectSeconds.
	DurationSongSeconds   float64
	DurationEffectSeconds float64
	// A present tempo must exceed TempoMinBPM to favour song.
	TempoMinBPM float64
	// Song at or above BeatCountSong; effect at or below BeatCountEffect.
	BeatCountSong   int
	BeatCountEffect int
	// Song at or above HarmonicRatioSong; effect below HarmonicRatioEffect.
	HarmonicRatioSong   float64
	HarmonicRatioEffect float64
	// Tonal (song) below FlatnessTonal; noisy (effect) above FlatnessNoisy.
	FlatnessTonal float64
	FlatnessNoisy float64
	// DecisivenessMargin is the point lead a side needs to win.
	DecisivenessMargin int
}

// DefaultThresholds returns the stock classification boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DurationSongSeconds:   30,
		DurationEffectSeconds: 10,
		TempoMinBPM:           0,
		BeatCountSong:         4,
		BeatCountEffect:       1,
		HarmonicRatioSong:     0.6,
		HarmonicRatioEffect:   0.3,
		FlatnessTonal:         0.1,
		FlatnessNoisy:         0.3,
		DecisivenessMargin:    25,
	}
}

// Validate rejects thresholds whose bands overlap or fall out of range.
func (t Thresholds) Validate() error {
	switch {
	case t.DurationEffectSeconds < 0 || t.DurationSongSeconds < 0:
		return errors.New("classifier: duration thresholds must be >= 0")
	case t.DurationEffectSeconds > t.DurationSongSeconds:
		return fmt.Errorf("classifier: duration_effect_seconds (%v) must not exceed duration_song_seconds (%v)",
			t.DurationEffectSeconds, t.DurationSongSeconds)
	case t.TempoMinBPM < 0:
		return errors.New("classifier: tempo_min_bpm must be >= 0")
	case t.BeatCountEffect < 0 || t.BeatCountEffect >= t.BeatCountSong:
		return fmt.Errorf("classifier: beat_count_effect (%d) must be >= 0 and below beat_count_song (%d)",
			t.BeatCountEffect, t.BeatCountSong)
	case t.HarmonicRatioEffect < 0 || t.HarmonicRatioSong > 1 || t.HarmonicRatioEffect > t.HarmonicRatioSong:
		return errors.New("classifier: harmonic ratios must satisfy 0 <= effect <= song <= 1")
	case t.FlatnessTonal < 0 || t.FlatnessTonal > t.FlatnessNoisy:
		return errors.New("classifier: flatness thresholds must satisfy 0 <= tonal <= noisy")
	case t.DecisivenessMargin < 0 || t.DecisivenessMargin >= MaxScore:
		return fmt.Errorf("classifier: decisiveness_margin must be in [0, %d)", MaxScore)
	}
	return nil
}
