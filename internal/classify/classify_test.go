package classify

import (
	"errors"
	"math"
	"testing"

	"soundcatalog/internal/features"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(DefaultThresholds())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestSongRegionAlwaysClassifiesAsSong(t *testing.T) {
	c := newTestClassifier(t)
	for _, duration := range []float64{30.5, 45, 180, 3600} {
		for _, tempo := range []float64{0.5, 60, 128, 200} {
			for _, beats := range []int{4, 5, 50, 400} {
				for _, harmonic := range []float64{0.6, 0.75, 1} {
					for _, flatness := range []float64{0, 0.01, 0.099} {
						v := features.Vector{
							DurationSeconds:      features.F(duration),
							TempoBPM:             features.F(tempo),
							BeatCount:            features.I(beats),
							HarmonicRatio:        features.F(harmonic),
							SpectralFlatnessMean: features.F(flatness),
						}
						res, err := c.Classify(v)
						if err != nil {
							t.Fatalf("classify: %v", err)
						}
						if res.Category != Song || res.Confidence < 0.5 {
							t.Fatalf("expected song >= 0.5 for %+v, got %s %.2f", v, res.Category, res.Confidence)
						}
					}
				}
			}
		}
	}
}

func TestEffectRegionAlwaysClassifiesAsSoundEffect(t *testing.T) {
	c := newTestClassifier(t)
	for _, duration := range []float64{0, 0.3, 5, 9.99} {
		for _, beats := range []int{0, 1} {
			for _, harmonic := range []float64{0, 0.1, 0.2} {
				for _, flatness := range []float64{0.31, 0.5, 1} {
					v := features.Vector{
						DurationSeconds:      features.F(duration),
						TempoBPM:             features.F(0),
						BeatCount:            features.I(beats),
						HarmonicRatio:        features.F(harmonic),
						SpectralFlatnessMean: features.F(flatness),
					}
					res, err := c.Classify(v)
					if err != nil {
						t.Fatalf("classify: %v", err)
					}
					if res.Category != SoundEffect || res.Confidence < 0.5 {
						t.Fatalf("expected sound_effect >= 0.5 for %+v, got %s %.2f", v, res.Category, res.Confidence)
					}
				}
			}
		}
	}
}

func TestMiddleBandClassifiesAsAmbiguous(t *testing.T) {
	c := newTestClassifier(t)
	v := features.Vector{
		DurationSeconds:      features.F(20),
		BeatCount:            features.I(2),
		HarmonicRatio:        features.F(0.4),
		SpectralFlatnessMean: features.F(0.2),
	}
	res, err := c.Classify(v)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Category != Ambiguous {
		t.Fatalf("expected ambiguous, got %s", res.Category)
	}
	if res.Confidence != 0 {
		t.Fatalf("expected zero confidence with no awards, got %v", res.Confidence)
	}
}

func TestScenarioFiles(t *testing.T) {
	c := newTestClassifier(t)
	tests := []struct {
		name string
		v    features.Vector
		want Category
	}{
		{"song.wav", features.Vector{
			DurationSeconds:      features.F(120),
			TempoBPM:             features.F(120),
			BeatCount:            features.I(200),
			HarmonicRatio:        features.F(0.8),
			SpectralFlatnessMean: features.F(0.02),
		}, Song},
		{"click.wav", features.Vector{
			DurationSeconds:      features.F(0.3),
			TempoBPM:             features.F(0),
			BeatCount:            features.I(0),
			HarmonicRatio:        features.F(0.05),
			SpectralFlatnessMean: features.F(0.6),
		}, SoundEffect},
		{"drone.wav", features.Vector{
			DurationSeconds:      features.F(20),
			TempoBPM:             features.F(0),
			BeatCount:            features.I(2),
			HarmonicRatio:        features.F(0.4),
			SpectralFlatnessMean: features.F(0.2),
		}, Ambiguous},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := c.Classify(tc.v)
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			if res.Category != tc.want {
				t.Fatalf("got %s (%s), want %s", res.Category, res.Breakdown, tc.want)
			}
		})
	}
}

func TestAmbiguousConfidenceStaysBelowDecisiveConfidence(t *testing.T) {
	th := DefaultThresholds()
	c, err := New(th)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// song 30+15 = 45, effect 25+20 = 45: tie at a high score.
	v := features.Vector{
		DurationSeconds:      features.F(90),
		TempoBPM:             features.F(0),
		BeatCount:            features.I(1),
		HarmonicRatio:        features.F(0.9),
		SpectralFlatnessMean: features.F(0.2),
	}
	res, err := c.Classify(v)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Category != Ambiguous {
		t.Fatalf("expected ambiguous, got %s", res.Category)
	}
	ceiling := float64(th.DecisivenessMargin-1) / MaxScore
	if res.Confidence != ceiling {
		t.Fatalf("ambiguous confidence %.2f, want capped at %.2f", res.Confidence, ceiling)
	}
	minDecisive := float64(th.DecisivenessMargin+1) / MaxScore
	if res.Confidence >= minDecisive {
		t.Fatalf("ambiguous confidence %.2f not below smallest decisive %.2f", res.Confidence, minDecisive)
	}
}

func TestUnavailableFactorsAreSkipped(t *testing.T) {
	c := newTestClassifier(t)
	v := features.Vector{DurationSeconds: features.F(200)}
	res, err := c.Classify(v)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !res.Breakdown[FactorTempo].Skipped {
		t.Fatal("unavailable tempo must be skipped, not scored as absent")
	}
	song, effect := res.Breakdown.Totals()
	if song != 30 || effect != 0 {
		t.Fatalf("unexpected totals song=%d effect=%d", song, effect)
	}
	if res.Category != Song {
		t.Fatalf("30-point lead should pass the 25-point margin, got %s", res.Category)
	}
}

func TestBreakdownReproducesDecision(t *testing.T) {
	c := newTestClassifier(t)
	vectors := []features.Vector{
		{DurationSeconds: features.F(3), TempoBPM: features.F(0)},
		{DurationSeconds: features.F(40), BeatCount: features.I(10), HarmonicRatio: features.F(0.1)},
		{DurationSeconds: features.F(15), SpectralFlatnessMean: features.F(0.5)},
		{},
	}
	for _, v := range vectors {
		res, err := c.Classify(v)
		if err != nil {
			t.Fatalf("classify: %v", err)
		}
		parsed, err := ParseBreakdown(res.Breakdown.String())
		if err != nil {
			t.Fatalf("parse breakdown %q: %v", res.Breakdown, err)
		}
		category, confidence := parsed.Decide(c.Thresholds().DecisivenessMargin)
		if category != res.Category || math.Abs(confidence-res.Confidence) > 1e-12 {
			t.Fatalf("recomputed %s %.2f, classified %s %.2f", category, confidence, res.Category, res.Confidence)
		}
	}
}

func TestClassifyRejectsMalformedVector(t *testing.T) {
	c := newTestClassifier(t)
	_, err := c.Classify(features.Vector{DurationSeconds: features.F(-4)})
	if !errors.Is(err, features.ErrInvalidFeatureVector) {
		t.Fatalf("expected ErrInvalidFeatureVector, got %v", err)
	}
}

func TestThresholdValidation(t *testing.T) {
	bad := DefaultThresholds()
	bad.DurationEffectSeconds = 60
	if _, err := New(bad); err == nil {
		t.Fatal("expected overlapping duration thresholds to fail")
	}
	bad = DefaultThresholds()
	bad.DecisivenessMargin = MaxScore
	if _, err := New(bad); err == nil {
		t.Fatal("expected margin of 100 to fail")
	}
	bad = DefaultThresholds()
	bad.FlatnessTonal = 0.5
	if _, err := New(bad); err == nil {
		t.Fatal("expected tonal above noisy to fail")
	}
}

func TestParseBreakdownRejectsGarbage(t *testing.T) {
	for _, input := range []string{"duration", "volume=1/2", "tempo=25", "beats=x/0"} {
		if _, err := ParseBreakdown(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}
