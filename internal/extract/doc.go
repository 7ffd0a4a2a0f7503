// Package extract produces feature vectors for audio files.
//
// Acoustic analysis itself is delegated: CommandExtractor runs an external
// analyzer that prints one JSON object per file, and ProbeExtractor reads
// container metadata with ffprobe. Both report failures wrapping
// ErrExtractionFailed; analyzer output that cannot be decoded wraps
// features.ErrInvalidFeatureVector instead.
package extract
