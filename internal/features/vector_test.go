package features

import (
	"errors"
	"math"
	"testing"
)

func validVector() Vector {
	return Vector{
		DurationSeconds:      F(12.5),
		TempoBPM:             F(0),
		BeatCount:            I(3),
		HarmonicRatio:        F(0.5),
		SpectralFlatnessMean: F(0.2),
		Chroma:               make([]float64, ChromaBins),
		MFCC:                 make([]float64, MFCCCoefficients),
	}
}

func TestValidateAcceptsWellFormedVector(t *testing.T) {
	if err := validVector().Validate(); err != nil {
		t.Fatalf("expected valid vector, got %v", err)
	}
	if err := (Vector{}).Validate(); err != nil {
		t.Fatalf("fully unavailable vector should validate, got %v", err)
	}
}

func TestValidateRejectsMalformedVectors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Vector)
	}{
		{"negative duration", func(v *Vector) { v.DurationSeconds = F(-1) }},
		{"nan loudness", func(v *Vector) { v.Loudness = F(math.NaN()) }},
		{"inf rms", func(v *Vector) { v.RMSEnergy = F(math.Inf(1)) }},
		{"harmonic above one", func(v *Vector) { v.HarmonicRatio = F(1.2) }},
		{"negative beats", func(v *Vector) { v.BeatCount = I(-2) }},
		{"short chroma", func(v *Vector) { v.Chroma = []float64{1, 2} }},
		{"long mfcc", func(v *Vector) { v.MFCC = make([]float64, 20) }},
		{"nan in mfcc", func(v *Vector) { v.MFCC[3] = math.NaN() }},
		{"negative tempo", func(v *Vector) { v.TempoBPM = F(-90) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := validVector()
			tc.mutate(&v)
			err := v.Validate()
			if !errors.Is(err, ErrInvalidFeatureVector) {
				t.Fatalf("expected ErrInvalidFeatureVector, got %v", err)
			}
		})
	}
}

func TestTempoStates(t *testing.T) {
	var v Vector
	if v.TempoPresent() || v.TempoAbsent() {
		t.Fatal("unavailable tempo must be neither present nor absent")
	}
	v.TempoBPM = F(0)
	if !v.TempoAbsent() || v.TempoPresent() {
		t.Fatal("zero tempo should be absent")
	}
	v.TempoBPM = F(128)
	if !v.TempoPresent() || v.TempoAbsent() {
		t.Fatal("positive tempo should be present")
	}
}

func TestFloatRoundTripPreservesUnavailable(t *testing.T) {
	parsed, err := ParseFloat(Unavailable.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Valid {
		t.Fatal("expected unavailable after round trip")
	}
	parsed, err = ParseFloat(F(0).String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Valid || parsed.Value != 0 {
		t.Fatalf("expected available zero, got %+v", parsed)
	}
}

func TestSequenceFormatting(t *testing.T) {
	if FormatSequence(nil) != "" {
		t.Fatal("nil sequence should format empty")
	}
	values := []float64{0.5, -1.25, 3}
	got, err := ParseSequence(FormatSequence(values))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != len(values) {
		t.Fatalf("length mismatch: %v", got)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Fatalf("value %d: got %v want %v", i, got[i], values[i])
		}
	}
	if _, err := ParseSequence("1 two 3"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCloneDoesNotShareSlices(t *testing.T) {
	v := validVector()
	c := v.Clone()
	c.Chroma[0] = 9
	if v.Chroma[0] == 9 {
		t.Fatal("clone shares chroma slice")
	}
}
