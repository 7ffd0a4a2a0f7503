package extract

import (
	"context"
	"fmt"
	"time"

	"soundcatalog/internal/features"
	"soundcatalog/internal/media/ffprobe"
)

// ProbeExtractor reads duration, sample rate, and channel count with ffprobe.
// Every other measurement is left unavailable, so the classifier decides on
// duration alone.
type ProbeExtractor struct {
	Binary  string
	Timeout time.Duration

	run ffprobe.Runner
}

// Extract probes one file.
func (p *ProbeExtractor) Extract(ctx context.Context, path string) (features.Vector, error) {
	runCtx, cancel := withTimeout(ctx, p.Timeout)
	defer cancel()

	result, err := ffprobe.Inspect(runCtx, p.run, p.Binary, path)
	if err != nil {
		return features.Vector{}, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, path, err)
	}
	if result.AudioStreamCount() == 0 {
		return features.Vector{}, fmt.Errorf("%w: %s: no audio stream", ErrExtractionFailed, path)
	}

	var vec features.Vector
	if d, ok := result.DurationSeconds(); ok {
		vec.DurationSeconds = features.F(d)
	}
	if sr, ok := result.SampleRate(); ok {
		vec.SampleRate = features.I(sr)
	}
	if ch, ok := result.Channels(); ok {
		vec.Channels = features.I(ch)
	}
	return vec, nil
}
