// Package ffprobe wraps ffprobe's JSON output for audio files.
//
// Inspect runs the binary and decodes streams and container format. Result
// helpers pick the primary audio stream and expose duration, sample rate, and
// channel count as optional values so callers can tell "zero" from "unknown".
package ffprobe
