package classify

import (
	"fmt"

	"soundcatalog/internal/features"
)

// Category is the single label assigned to an audio file.
type Category string

const (
	Song        Category = "song"
	SoundEffect Category = "sound_effect"
	Ambiguous   Category = "ambiguous"
)

// Categories lists every category in reporting order.
var Categories = []Category{Song, SoundEffect, Ambiguous}

// ParseCategory maps a stored label back to a Category.
func ParseCategory(value string) (Category, error) {
	for _, c := range Categories {
		if string(c) == value {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", value)
}

// Result is the outcome of classifying one feature vector.
type Result struct {
	Category   Category
	Confidence float64
	Breakdown  Breakdown
}

// Classifier applies fixed thresholds to feature vectors. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	thresholds Thresholds
}

// New validates the thresholds and returns a classifier.
func New(t Thresholds) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{thresholds: t}, nil
}

// Thresholds returns the configuration the classifier was built with.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify scores v and decides its category. Malformed vectors fail with
// features.ErrInvalidFeatureVector.
func (c *Classifier) Classify(v features.Vector) (Result, error) {
	if err := v.Validate(); err != nil {
		return Result{}, err
	}
	t := c.thresholds
	breakdown := Breakdown{
		FactorDuration: scoreDuration(v, t),
		FactorTempo:    scoreTempo(v, t),
		FactorBeats:    scoreBeats(v, t),
		FactorHarmonic: scoreHarmonic(v, t),
		FactorSpectral: scoreSpectral(v, t),
	}
	category, confidence := breakdown.Decide(t.DecisivenessMargin)
	return Result{
		Category:   category,
		Confidence: confidence,
		Breakdown:  breakdown,
	}, nil
}

func scoreDuration(v features.Vector, t Thresholds) Award {
	d := v.DurationSeconds
	switch {
	case !d.Valid:
		return skipped()
	case d.Value > t.DurationSongSeconds:
		return songAward(FactorDuration)
	case d.Value < t.DurationEffectSeconds:
		return effectAward(FactorDuration)
	}
	return Award{}
}

func scoreTempo(v features.Vector, t Thresholds) Award {
	switch {
	case !v.TempoBPM.Valid:
		return skipped()
	case v.TempoPresent() && v.TempoBPM.Value > t.TempoMinBPM:
		return songAward(FactorTempo)
	case v.TempoAbsent():
		return effectAward(FactorTempo)
	}
	return Award{}
}

func scoreBeats(v features.Vector, t Thresholds) Award {
	b := v.BeatCount
	switch {
	case !b.Valid:
		return skipped()
	case b.Value >= t.BeatCountSong:
		return songAward(FactorBeats)
	case b.Value <= t.BeatCountEffect:
		return effectAward(FactorBeats)
	}
	return Award{}
}

func scoreHarmonic(v features.Vector, t Thresholds) Award {
	h := v.HarmonicRatio
	switch {
	case !h.Valid:
		return skipped()
	case h.Value >= t.HarmonicRatioSong:
		return songAward(FactorHarmonic)
	case h.Value < t.HarmonicRatioEffect:
		return effectAward(FactorHarmonic)
	}
	return Award{}
}

func scoreSpectral(v features.Vector, t Thresholds) Award {
	f := v.SpectralFlatnessMean
	switch {
	case !f.Valid:
		return skipped()
	case f.Value < t.FlatnessTonal:
		return songAward(FactorSpectral)
	case f.Value > t.FlatnessNoisy:
		return effectAward(FactorSpectral)
	}
	return Award{}
}

func songAward(f Factor) Award   { return Award{Song: Weight(f)} }
func effectAward(f Factor) Award { return Award{Effect: Weight(f)} }
func skipped() Award             { return Award{Skipped: true} }
