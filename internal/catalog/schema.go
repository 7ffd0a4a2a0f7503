package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"soundcatalog/internal/classify"
	"soundcatalog/internal/features"
)

// SchemaVersion is the column layout written by this build. Version 1 is the
// base layout; version 2 appended the kit metadata columns.
const SchemaVersion = 2

const timeLayout = time.RFC3339Nano

type column struct {
	name   string
	since  int
	format func(*Record) string
	parse  func(*Record, string) error
}

// columns is append-only. Never insert or reorder.
var columns = []column{
	stringCol("filename", 1, func(r *Record) *string { return &r.Filename }),
	stringCol("file_path", 1, func(r *Record) *string { return &r.Path }),
	stringCol("fingerprint", 1, func(r *Record) *string { return &r.Fingerprint }),
	{
		name: "file_size", since: 1,
		format: func(r *Record) string { return strconv.FormatInt(r.FileSize, 10) },
		parse: func(r *Record, s string) (err error) {
			if s == "" {
				return nil
			}
			r.FileSize, err = strconv.ParseInt(s, 10, 64)
			return err
		},
	},
	timeCol("modified_at", 1, func(r *Record) *time.Time { return &r.ModTime }),
	floatCol("duration", 1, func(r *Record) *features.Float { return &r.Features.DurationSeconds }),
	intCol("sample_rate", 1, func(r *Record) *features.Int { return &r.Features.SampleRate }),
	intCol("channels", 1, func(r *Record) *features.Int { return &r.Features.Channels }),
	floatCol("tempo", 1, func(r *Record) *features.Float { return &r.Features.TempoBPM }),
	intCol("beat_count", 1, func(r *Record) *features.Int { return &r.Features.BeatCount }),
	floatCol("onset_strength", 1, func(r *Record) *features.Float { return &r.Features.OnsetStrength }),
	floatCol("zero_crossing_rate", 1, func(r *Record) *features.Float { return &r.Features.ZeroCrossingRate }),
	floatCol("rms_energy", 1, func(r *Record) *features.Float { return &r.Features.RMSEnergy }),
	floatCol("spectral_centroid", 1, func(r *Record) *features.Float { return &r.Features.SpectralCentroidMean }),
	floatCol("spectral_bandwidth", 1, func(r *Record) *features.Float { return &r.Features.SpectralBandwidthMean }),
	floatCol("spectral_rolloff", 1, func(r *Record) *features.Float { return &r.Features.SpectralRolloffMean }),
	floatCol("spectral_contrast", 1, func(r *Record) *features.Float { return &r.Features.SpectralContrastMean }),
	floatCol("spectral_flatness", 1, func(r *Record) *features.Float { return &r.Features.SpectralFlatnessMean }),
	floatCol("harmonic_ratio", 1, func(r *Record) *features.Float { return &r.Features.HarmonicRatio }),
	seqCol("chroma_features", 1, func(r *Record) *[]float64 { return &r.Features.Chroma }),
	seqCol("mfcc_features", 1, func(r *Record) *[]float64 { return &r.Features.MFCC }),
	floatCol("dynamic_range", 1, func(r *Record) *features.Float { return &r.Features.DynamicRange }),
	floatCol("loudness", 1, func(r *Record) *features.Float { return &r.Features.Loudness }),
	floatCol("peak_amplitude", 1, func(r *Record) *features.Float { return &r.Features.PeakAmplitude }),
	{
		name: "audio_type", since: 1,
		format: func(r *Record) string { return string(r.Category) },
		parse: func(r *Record, s string) (err error) {
			r.Category, err = classify.ParseCategory(s)
			return err
		},
	},
	{
		name: "confidence", since: 1,
		format: func(r *Record) string { return strconv.FormatFloat(r.Confidence, 'f', -1, 64) },
		parse: func(r *Record, s string) (err error) {
			r.Confidence, err = strconv.ParseFloat(s, 64)
			if err == nil && (r.Confidence < 0 || r.Confidence > 1) {
				err = fmt.Errorf("confidence %v outside [0,1]", r.Confidence)
			}
			return err
		},
	},
	{
		name: "score_breakdown", since: 1,
		format: func(r *Record) string { return r.Breakdown.String() },
		parse: func(r *Record, s string) (err error) {
			r.Breakdown, err = classify.ParseBreakdown(s)
			return err
		},
	},
	stringCol("google_cloud_url", 1, func(r *Record) *string { return &r.RemoteURL }),
	stringCol("source_directory", 1, func(r *Record) *string { return &r.Source }),
	timeCol("processing_timestamp", 1, func(r *Record) *time.Time { return &r.ProcessedAt }),
	stringCol("title", 2, func(r *Record) *string { return &r.Title }),
	stringCol("kit_category", 2, func(r *Record) *string { return &r.KitCategory }),
	{
		name: "tags", since: 2,
		format: func(r *Record) string { return strings.Join(r.Tags, ",") },
		parse: func(r *Record, s string) error {
			r.Tags = splitTags(s)
			return nil
		},
	},
	stringCol("description", 2, func(r *Record) *string { return &r.Description }),
}

// Header returns the column names for a schema version.
func Header(version int) []string {
	var out []string
	for _, c := range columns {
		if c.since <= version {
			out = append(out, c.name)
		}
	}
	return out
}

// detectVersion returns the schema version whose header equals h exactly.
func detectVersion(h []string) (int, bool) {
	for v := SchemaVersion; v >= 1; v-- {
		if slices.Equal(h, Header(v)) {
			return v, true
		}
	}
	return 0, false
}

// isHeaderPrefix reports whether h looks like a header cut short mid-write.
func isHeaderPrefix(h []string) bool {
	full := Header(SchemaVersion)
	if len(h) == 0 || len(h) > len(full) {
		return false
	}
	last := len(h) - 1
	return slices.Equal(h[:last], full[:last]) && strings.HasPrefix(full[last], h[last])
}

func encodeFields(r *Record) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.format(r)
	}
	return out
}

// decodeFields maps a row onto a Record by the column names in header, so
// rows written under an older version decode with the newer fields empty.
func decodeFields(header, row []string) (Record, error) {
	if len(row) != len(header) {
		return Record{}, fmt.Errorf("row has %d fields, header has %d", len(row), len(header))
	}
	var rec Record
	for i, name := range header {
		c, ok := columnByName(name)
		if !ok {
			continue
		}
		if err := c.parse(&rec, row[i]); err != nil {
			return Record{}, fmt.Errorf("column %s: %w", name, err)
		}
	}
	return rec, nil
}

func columnByName(name string) (column, bool) {
	for _, c := range columns {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

func stringCol(name string, since int, field func(*Record) *string) column {
	return column{
		name: name, since: since,
		format: func(r *Record) string { return *field(r) },
		parse: func(r *Record, s string) error {
			*field(r) = s
			return nil
		},
	}
}

func floatCol(name string, since int, field func(*Record) *features.Float) column {
	return column{
		name: name, since: since,
		format: func(r *Record) string { return field(r).String() },
		parse: func(r *Record, s string) (err error) {
			*field(r), err = features.ParseFloat(s)
			return err
		},
	}
}

func intCol(name string, since int, field func(*Record) *features.Int) column {
	return column{
		name: name, since: since,
		format: func(r *Record) string { return field(r).String() },
		parse: func(r *Record, s string) (err error) {
			*field(r), err = features.ParseInt(s)
			return err
		},
	}
}

func seqCol(name string, since int, field func(*Record) *[]float64) column {
	return column{
		name: name, since: since,
		format: func(r *Record) string { return features.FormatSequence(*field(r)) },
		parse: func(r *Record, s string) (err error) {
			*field(r), err = features.ParseSequence(s)
			return err
		},
	}
}

func timeCol(name string, since int, field func(*Record) *time.Time) column {
	return column{
		name: name, since: since,
		format: func(r *Record) string {
			t := *field(r)
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format(timeLayout)
		},
		parse: func(r *Record, s string) error {
			if s == "" {
				*field(r) = time.Time{}
				return nil
			}
			t, err := time.Parse(timeLayout, s)
			if err != nil {
				return err
			}
			*field(r) = t
			return nil
		},
	}
}

func splitTags(s string) []string {
	var tags []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
