package features

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ChromaBins and MFCCCoefficients fix the length of the sequence features.
const (
	ChromaBins       = 12
	MFCCCoefficients = 13
)

// ErrInvalidFeatureVector reports malformed extractor output.
var ErrInvalidFeatureVector = errors.New("invalid feature vector")

// Float is a scalar measurement that may be unavailable.
type Float struct {
	Value float64
	Valid bool
}

// Int is an integer measurement that may be unavailable.
type Int struct {
	Value int
	Valid bool
}

// F returns an available float measurement.
func F(v float64) Float { return Float{Value: v, Valid: true} }

// I returns an available integer measurement.
func I(v int) Int { return Int{Value: v, Valid: true} }

// Unavailable is the zero Float, spelled out for readability at call sites.
var Unavailable = Float{}

// String renders the value for tabular storage; unavailable values render empty.
func (f Float) String() string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Value, 'f', -1, 64)
}

func (i Int) String() string {
	if !i.Valid {
		return ""
	}
	return strconv.Itoa(i.Value)
}

// ParseFloat is the inverse of Float.String.
func ParseFloat(s string) (Float, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Float{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Float{}, err
	}
	return F(v), nil
}

// ParseInt is the inverse of Int.String.
func ParseInt(s string) (Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Int{}, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return Int{}, err
	}
	return I(v), nil
}

// Vector is the fixed-schema bundle of measurements for one audio file.
type Vector struct {
	DurationSeconds       Float
	TempoBPM              Float
	BeatCount             Int
	OnsetStrength         Float
	ZeroCrossingRate      Float
	RMSEnergy             Float
	SpectralCentroidMean  Float
	SpectralBandwidthMean Float
	SpectralRolloffMean   Float
	SpectralContrastMean  Float
	SpectralFlatnessMean  Float
	HarmonicRatio         Float
	Chroma                []float64
	MFCC                  []float64
	DynamicRange          Float
	Loudness              Float
	PeakAmplitude         Float
	SampleRate            Int
	Channels              Int
}

// TempoPresent reports whether a positive tempo was detected.
func (v Vector) TempoPresent() bool {
	return v.TempoBPM.Valid && v.TempoBPM.Value > 0
}

// TempoAbsent reports whether tempo estimation ran and found no pulse.
func (v Vector) TempoAbsent() bool {
	return v.TempoBPM.Valid && v.TempoBPM.Value == 0
}

// Clone returns a copy that shares no slices with v.
func (v Vector) Clone() Vector {
	out := v
	if v.Chroma != nil {
		out.Chroma = append([]float64(nil), v.Chroma...)
	}
	if v.MFCC != nil {
		out.MFCC = append([]float64(nil), v.MFCC...)
	}
	return out
}

// Validate checks that every available measurement is finite and within range.
// Failures wrap ErrInvalidFeatureVector.
func (v Vector) Validate() error {
	var problems []string
	check := func(name string, f Float) {
		if f.Valid && (math.IsNaN(f.Value) || math.IsInf(f.Value, 0)) {
			problems = append(problems, name+" is not finite")
		}
	}
	nonNegative := func(name string, f Float) {
		if f.Valid && f.Value < 0 {
			problems = append(problems, fmt.Sprintf("%s is negative (%v)", name, f.Value))
		}
	}

	scalars := []struct {
		name string
		val  Float
	}{
		{"duration_seconds", v.DurationSeconds},
		{"tempo_bpm", v.TempoBPM},
		{"onset_strength", v.OnsetStrength},
		{"zero_crossing_rate", v.ZeroCrossingRate},
		{"rms_energy", v.RMSEnergy},
		{"spectral_centroid_mean", v.SpectralCentroidMean},
		{"spectral_bandwidth_mean", v.SpectralBandwidthMean},
		{"spectral_rolloff_mean", v.SpectralRolloffMean},
		{"spectral_contrast_mean", v.SpectralContrastMean},
		{"spectral_flatness_mean", v.SpectralFlatnessMean},
		{"harmonic_ratio", v.HarmonicRatio},
		{"dynamic_range", v.DynamicRange},
		{"loudness", v.Loudness},
		{"peak_amplitude", v.PeakAmplitude},
	}
	for _, s := range scalars {
		check(s.name, s.val)
	}
	nonNegative("duration_seconds", v.DurationSeconds)
	nonNegative("tempo_bpm", v.TempoBPM)
	nonNegative("spectral_flatness_mean", v.SpectralFlatnessMean)

	if v.HarmonicRatio.Valid && (v.HarmonicRatio.Value < 0 || v.HarmonicRatio.Value > 1) {
		problems = append(problems, fmt.Sprintf("harmonic_ratio %v outside [0,1]", v.HarmonicRatio.Value))
	}
	if v.BeatCount.Valid && v.BeatCount.Value < 0 {
		problems = append(problems, fmt.Sprintf("beat_count is negative (%d)", v.BeatCount.Value))
	}
	if v.SampleRate.Valid && v.SampleRate.Value < 0 {
		problems = append(problems, "sample_rate is negative")
	}
	if v.Channels.Valid && v.Channels.Value < 0 {
		problems = append(problems, "channels is negative")
	}
	problems = append(problems, checkSequence("chroma", v.Chroma, ChromaBins)...)
	problems = append(problems, checkSequence("mfcc", v.MFCC, MFCCCoefficients)...)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidFeatureVector, strings.Join(problems, "; "))
	}
	return nil
}

func checkSequence(name string, values []float64, want int) []string {
	if values == nil {
		return nil
	}
	var problems []string
	if len(values) != want {
		problems = append(problems, fmt.Sprintf("%s has %d values, want %d", name, len(values), want))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			problems = append(problems, fmt.Sprintf("%s[%d] is not finite", name, i))
		}
	}
	return problems
}

// FormatSequence renders a sequence as a space-separated list; nil renders empty.
func FormatSequence(values []float64) string {
	if values == nil {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, " ")
}

// ParseSequence is the inverse of FormatSequence.
func ParseSequence(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("parse sequence value %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
