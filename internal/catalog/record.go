package catalog

import (
	"time"

	"soundcatalog/internal/classify"
	"soundcatalog/internal/features"
)

// Record is one cataloged audio file. Records are written once and never
// updated in place.
type Record struct {
	Filename    string
	Path        string
	Fingerprint string
	FileSize    int64
	ModTime     time.Time

	Features features.Vector

	Category   classify.Category
	Confidence float64
	Breakdown  classify.Breakdown

	RemoteURL string
	Source    string

	// Optional human-authored metadata; empty when none was found.
	Title       string
	KitCategory string
	Tags        []string
	Description string

	ProcessedAt time.Time
}
