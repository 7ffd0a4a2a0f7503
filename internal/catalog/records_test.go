package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"soundcatalog/internal/classify"
)

func seedCatalog(t *testing.T, path string) {
	t.Helper()
	s := openTestStore(t, path, Options{})
	recs := []Record{sampleRecord("a.wav"), sampleRecord("b.wav"), sampleRecord("c.wav")}
	recs[0].Category, recs[0].Confidence, recs[0].Source = classify.Song, 0.9, "google"
	recs[1].Category, recs[1].Confidence = classify.SoundEffect, 0.6
	recs[2].Category, recs[2].Confidence, recs[2].Title, recs[2].KitCategory = classify.Ambiguous, 0.2, "", ""
	for _, rec := range recs {
		if err := s.Append(context.Background(), rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestComputeStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	seedCatalog(t, path)

	stats, err := ComputeStats(path)
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	if stats.Rows != 3 {
		t.Fatalf("expected 3 rows, got %d", stats.Rows)
	}
	for _, cat := range classify.Categories {
		if stats.ByCategory[cat] != 1 {
			t.Fatalf("expected 1 %s, got %v", cat, stats.ByCategory)
		}
	}
	if stats.BySource["mixkit"] != 2 || stats.BySource["google"] != 1 {
		t.Fatalf("unexpected sources: %v", stats.BySource)
	}
	if stats.TotalBytes != 3*1024 || stats.TotalDuration != 37.5 {
		t.Fatalf("unexpected totals: %d bytes, %v seconds", stats.TotalBytes, stats.TotalDuration)
	}
	if stats.WithMetadata != 2 {
		t.Fatalf("expected 2 records with metadata, got %d", stats.WithMetadata)
	}
}

func TestExportFilters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.csv")
	seedCatalog(t, path)

	cases := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"everything", Filter{}, 3},
		{"songs", Filter{Categories: []classify.Category{classify.Song}}, 1},
		{"decisive", Filter{Categories: []classify.Category{classify.Song, classify.SoundEffect}}, 2},
		{"source", Filter{Sources: []string{"MIXKIT"}}, 2},
		{"confident", Filter{MinConfidence: 0.5}, 2},
		{"unsure", Filter{MaxConfidence: 0.5}, 1},
		{"none", Filter{Sources: []string{"elsewhere"}}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dst := filepath.Join(dir, tc.name+".csv")
			n, err := Export(path, dst, tc.filter)
			if err != nil {
				t.Fatalf("Export: %v", err)
			}
			if n != tc.want {
				t.Fatalf("exported %d, want %d", n, tc.want)
			}
			report, err := Validate(dst)
			if err != nil || report.Rows != tc.want {
				t.Fatalf("export not a valid catalog: %+v %v", report, err)
			}
		})
	}
}
