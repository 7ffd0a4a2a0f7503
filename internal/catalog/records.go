package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"strings"

	"soundcatalog/internal/classify"
	"soundcatalog/internal/fileutil"
)

// Records streams every row of the catalog at path. Iteration stops after the
// first error, which is yielded with a zero Record.
func Records(path string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(Record{}, fmt.Errorf("open catalog: %w", err))
			return
		}
		defer f.Close()

		reader := csv.NewReader(f)
		reader.FieldsPerRecord = -1
		header, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(Record{}, fmt.Errorf("read catalog header: %w", err))
			return
		}
		if _, ok := detectVersion(header); !ok {
			yield(Record{}, &CorruptStoreError{Path: path, Reason: "unrecognized header"})
			return
		}

		for row := 1; ; row++ {
			fields, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Record{}, fmt.Errorf("read catalog row %d: %w", row, err))
				return
			}
			rec, err := decodeFields(header, fields)
			if err != nil {
				yield(Record{}, fmt.Errorf("decode catalog row %d: %w", row, err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Stats aggregates a catalog for reporting.
type Stats struct {
	Rows           int
	ByCategory     map[classify.Category]int
	BySource       map[string]int
	TotalBytes     int64
	TotalDuration  float64
	MeanConfidence float64
	WithMetadata   int
}

// ComputeStats reads the whole catalog and aggregates it.
func ComputeStats(path string) (Stats, error) {
	stats := Stats{
		ByCategory: make(map[classify.Category]int),
		BySource:   make(map[string]int),
	}
	var confidenceSum float64
	for rec, err := range Records(path) {
		if err != nil {
			return stats, err
		}
		stats.Rows++
		stats.ByCategory[rec.Category]++
		stats.BySource[rec.Source]++
		stats.TotalBytes += rec.FileSize
		if rec.Features.DurationSeconds.Valid {
			stats.TotalDuration += rec.Features.DurationSeconds.Value
		}
		if rec.Title != "" || rec.KitCategory != "" {
			stats.WithMetadata++
		}
		confidenceSum += rec.Confidence
	}
	if stats.Rows > 0 {
		stats.MeanConfidence = confidenceSum / float64(stats.Rows)
	}
	return stats, nil
}

// Filter selects records for export. Zero-valued fields match everything.
type Filter struct {
	Categories    []classify.Category
	Sources       []string
	MinConfidence float64
	// MaxConfidence of 0 means no upper bound.
	MaxConfidence float64
}

// Match reports whether rec passes every criterion.
func (f Filter) Match(rec Record) bool {
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, rec.Category) {
		return false
	}
	if len(f.Sources) > 0 && !slices.ContainsFunc(f.Sources, func(s string) bool {
		return strings.EqualFold(s, rec.Source)
	}) {
		return false
	}
	if rec.Confidence < f.MinConfidence {
		return false
	}
	if f.MaxConfidence > 0 && rec.Confidence > f.MaxConfidence {
		return false
	}
	return true
}

// Export writes the records of src matching filter to dst in the current
// schema and returns how many were written. dst is replaced atomically.
func Export(src, dst string, filter Filter) (int, error) {
	written := 0
	err := fileutil.WriteAtomic(dst, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(Header(SchemaVersion)); err != nil {
			return err
		}
		for rec, err := range Records(src) {
			if err != nil {
				return err
			}
			if !filter.Match(rec) {
				continue
			}
			if err := cw.Write(encodeFields(&rec)); err != nil {
				return err
			}
			written++
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return 0, fmt.Errorf("export catalog: %w", err)
	}
	return written, nil
}
