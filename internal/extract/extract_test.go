package extract

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"soundcatalog/internal/config"
	"soundcatalog/internal/features"
)

const probeJSON = `{"streams":[{"codec_type":"audio","sample_rate":"48000","channels":1}],"format":{"duration":"2.5"}}`

func fakeProbe(t *testing.T, calls *int) *ProbeExtractor {
	t.Helper()
	return &ProbeExtractor{run: func(_ context.Context, _ string, args ...string) ([]byte, error) {
		*calls++
		return []byte(probeJSON), nil
	}}
}

func TestDecodeAnalyzerOutputDistinguishesAbsentFromUnavailable(t *testing.T) {
	vec, err := DecodeAnalyzerOutput([]byte(`{"duration": 0.3, "tempo": 0, "beat_count": 0, "harmonic_ratio": null}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !vec.TempoAbsent() || vec.TempoPresent() {
		t.Fatalf("tempo 0 should be absent, got %+v", vec.TempoBPM)
	}
	if vec.HarmonicRatio.Valid || vec.SpectralFlatnessMean.Valid {
		t.Fatal("null and missing fields should be unavailable")
	}
	if !vec.BeatCount.Valid || vec.BeatCount.Value != 0 {
		t.Fatalf("unexpected beat count %+v", vec.BeatCount)
	}

	vec, err = DecodeAnalyzerOutput([]byte(`{"duration": 10}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if vec.TempoBPM.Valid {
		t.Fatal("missing tempo should be unavailable")
	}

	if _, err := DecodeAnalyzerOutput([]byte(`not json`)); !errors.Is(err, features.ErrInvalidFeatureVector) {
		t.Fatalf("expected ErrInvalidFeatureVector, got %v", err)
	}
}

func TestCommandExtractorRunsAnalyzerAndEnriches(t *testing.T) {
	var gotName string
	var gotArgs []string
	probeCalls := 0
	c := &CommandExtractor{
		Command: "analyze",
		Args:    []string{"--json"},
		Probe:   fakeProbe(t, &probeCalls),
		run: func(_ context.Context, name string, args ...string) ([]byte, error) {
			gotName, gotArgs = name, args
			return []byte(`{"tempo": 120, "beat_count": 40, "channels": 2}`), nil
		},
	}

	vec, err := c.Extract(context.Background(), "/sounds/song.wav")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if gotName != "analyze" || !slices.Equal(gotArgs, []string{"--json", "/sounds/song.wav"}) {
		t.Fatalf("unexpected invocation %s %v", gotName, gotArgs)
	}
	if probeCalls != 1 {
		t.Fatalf("expected one ffprobe call, got %d", probeCalls)
	}
	if vec.DurationSeconds != features.F(2.5) || vec.SampleRate != features.I(48000) {
		t.Fatalf("expected ffprobe enrichment, got %+v", vec)
	}
	if vec.Channels != features.I(2) {
		t.Fatalf("analyzer channels should win, got %+v", vec.Channels)
	}
	if !vec.TempoPresent() {
		t.Fatal("expected tempo present")
	}
}

func TestCommandExtractorFailures(t *testing.T) {
	boom := errors.New("exit status 2")
	c := &CommandExtractor{
		Command: "analyze",
		run: func(context.Context, string, ...string) ([]byte, error) {
			return nil, boom
		},
	}
	_, err := c.Extract(context.Background(), "/x.wav")
	if !errors.Is(err, ErrExtractionFailed) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped ErrExtractionFailed, got %v", err)
	}

	c.run = func(context.Context, string, ...string) ([]byte, error) { return []byte("{"), nil }
	_, err = c.Extract(context.Background(), "/x.wav")
	if !errors.Is(err, features.ErrInvalidFeatureVector) {
		t.Fatalf("expected ErrInvalidFeatureVector, got %v", err)
	}
}

func TestProbeExtractor(t *testing.T) {
	calls := 0
	vec, err := fakeProbe(t, &calls).Extract(context.Background(), "/x.wav")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if vec.DurationSeconds != features.F(2.5) || vec.Channels != features.I(1) {
		t.Fatalf("unexpected vector %+v", vec)
	}
	if vec.TempoBPM.Valid || vec.HarmonicRatio.Valid {
		t.Fatal("probe must leave acoustic features unavailable")
	}

	noAudio := &ProbeExtractor{run: func(context.Context, string, ...string) ([]byte, error) {
		return []byte(`{"streams":[{"codec_type":"video"}],"format":{}}`), nil
	}}
	if _, err := noAudio.Extract(context.Background(), "/x.mp4"); !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestNewLimitedPacesCalls(t *testing.T) {
	inner := Func(func(context.Context, string) (features.Vector, error) {
		return features.Vector{}, nil
	})
	if got := NewLimited(inner, 0); got == nil {
		t.Fatal("expected passthrough extractor")
	}

	limited := NewLimited(inner, 20)
	start := time.Now()
	for range 3 {
		if _, err := limited.Extract(context.Background(), "/x.wav"); err != nil {
			t.Fatalf("Extract: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Fatalf("expected pacing near 100ms, took %v", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := limited.Extract(ctx, "/x.wav"); !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed on cancelled wait, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	if _, ok := FromConfig(&cfg, nil).(*ProbeExtractor); !ok {
		t.Fatal("expected ffprobe-only extractor without a command")
	}
	cfg.Extractor.Command = "analyze"
	c, ok := FromConfig(&cfg, nil).(*CommandExtractor)
	if !ok {
		t.Fatal("expected command extractor")
	}
	if c.Probe == nil || c.Timeout != time.Duration(cfg.Extractor.TimeoutSeconds)*time.Second {
		t.Fatalf("unexpected command extractor %+v", c)
	}
	cfg.Extractor.MaxPerSecond = 5
	if _, ok := FromConfig(&cfg, nil).(*limited); !ok {
		t.Fatal("expected rate limited extractor")
	}
}
