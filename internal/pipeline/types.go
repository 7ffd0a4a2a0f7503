package pipeline

import (
	"context"
	"fmt"
	"iter"
	"time"

	"soundcatalog/internal/catalog"
	"soundcatalog/internal/classify"
	"soundcatalog/internal/history"
	"soundcatalog/internal/kitmeta"
	"soundcatalog/internal/scan"
)

// State names a step of the run state machine.
type State string

const (
	StateIdle             State = "idle"
	StateScanning         State = "scanning"
	StateExtractingBatch  State = "extracting_batch"
	StateClassifyingBatch State = "classifying_batch"
	StatePersistingBatch  State = "persisting_batch"
	StateDraining         State = "draining"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// Stage identifies where a file failed.
type Stage string

const (
	StageExtract  Stage = "extract"
	StageValidate Stage = "validate"
	StageClassify Stage = "classify"
)

// FileFailure records one file that could not be cataloged.
type FileFailure struct {
	Path  string
	Stage Stage
	Cause error
}

func (f FileFailure) String() string {
	return fmt.Sprintf("%s [%s]: %v", f.Path, f.Stage, f.Cause)
}

// Summary reports a run's outcome. It is returned even when the run fails.
type Summary struct {
	RunID       string
	State       State
	Resume      bool
	Interrupted bool

	// Found counts every audio file the scan reported, skipped or not.
	Found          int
	SkippedDone    int
	SkippedInvalid int
	Duplicates     int
	Processed      int
	Failed         int

	ByCategory map[classify.Category]int
	Failures   []FileFailure
	Snapshots  []string

	StartedAt time.Time
	Elapsed   time.Duration
}

// Progress is reported after scanning and after every file settles.
type Progress struct {
	State     State
	Batch     int
	Batches   int
	Completed int
	Total     int
}

// Options selects what a run covers.
type Options struct {
	// RunID tags logs and history; empty generates one.
	RunID     string
	Roots     []scan.Root
	BatchSize int
	Workers   int
	// Resume skips cataloged files before extraction. Without it they are
	// extracted again and the store rejects the duplicate append.
	Resume bool
	// Limit caps the number of files processed; 0 means no cap.
	Limit int
	// BackupInterval is the number of appends between snapshots.
	BackupInterval int
}

// Scanner enumerates candidate files.
type Scanner interface {
	Scan(ctx context.Context, roots []scan.Root) iter.Seq[scan.Entry]
}

// Store is the record store contract the orchestrator relies on.
type Store interface {
	Contains(fingerprint string) bool
	Append(ctx context.Context, rec catalog.Record) error
	Snapshot() (string, error)
	Len() int
}

// Metadata looks up optional human-authored metadata by file name.
type Metadata interface {
	Lookup(filename string) (kitmeta.Entry, bool)
}

// URLGenerator builds the remote reference for a file.
type URLGenerator interface {
	URL(source, filename string) string
}

// Recorder persists run summaries.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}
