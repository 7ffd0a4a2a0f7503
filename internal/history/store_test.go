package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	run := Run{
		ID:          "run-1",
		StartedAt:   start,
		FinishedAt:  start.Add(90 * time.Second),
		State:       "done",
		Resume:      true,
		Interrupted: true,
		Roots:       []string{"mixkit=/sounds/mixkit"},
		Found:       5,
		SkippedDone: 1,
		Duplicates:  1,
		Processed:   2,
		Failed:      1,
		Snapshots:   1,
		ByCategory:  map[string]int{"song": 1, "sound_effect": 1},
		Failures: []Failure{
			{Path: "/sounds/mixkit/bad.wav", Stage: "extract", Cause: "extraction failed"},
		},
	}
	if err := store.Record(ctx, run); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != "done" || !got.Resume || !got.Interrupted || got.Processed != 2 {
		t.Fatalf("unexpected run: %+v", got)
	}
	if got.Elapsed() != 90*time.Second {
		t.Fatalf("unexpected elapsed: %v", got.Elapsed())
	}
	if got.ByCategory["song"] != 1 || len(got.Roots) != 1 {
		t.Fatalf("unexpected json columns: %+v", got)
	}
	if len(got.Failures) != 1 || got.Failures[0].Stage != "extract" {
		t.Fatalf("unexpected failures: %+v", got.Failures)
	}
	if got.Error != "" {
		t.Fatalf("expected empty error, got %q", got.Error)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := store.Record(ctx, run); err == nil {
		t.Fatal("expected duplicate run id to fail")
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	offsets := []time.Duration{0, 500 * time.Millisecond, time.Second}
	for i, off := range offsets {
		run := Run{
			ID:         string(rune('a' + i)),
			StartedAt:  base.Add(off),
			FinishedAt: base.Add(off + time.Minute),
			State:      "failed",
			Error:      "store write failed",
		}
		if err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	runs, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "c" || runs[1].ID != "b" || runs[2].ID != "a" {
		t.Fatalf("unexpected order: %+v", runs)
	}
	if runs[0].Error != "store write failed" || runs[0].ByCategory == nil {
		t.Fatalf("unexpected run decode: %+v", runs[0])
	}

	limited, err := store.List(ctx, 2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("List(2) = %d runs, err %v", len(limited), err)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	now := time.Now()
	if err := store.Record(context.Background(), Run{ID: "x", StartedAt: now, FinishedAt: now, State: "done"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	_ = store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.List(context.Background(), 10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected persisted run, got %v %v", runs, err)
	}
}
