package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"soundcatalog/internal/catalog"
	"soundcatalog/internal/classify"
	"soundcatalog/internal/extract"
	"soundcatalog/internal/features"
	"soundcatalog/internal/history"
	"soundcatalog/internal/logging"
	"soundcatalog/internal/scan"
)

const (
	defaultBatchSize      = 10
	defaultBackupInterval = 50
)

// Deps are the collaborators of an Orchestrator. Metadata, History, and
// Progress are optional.
type Deps struct {
	Scanner    Scanner
	Extractor  extract.Extractor
	Classifier *classify.Classifier
	Store      Store
	URLs       URLGenerator
	Metadata   Metadata
	History    Recorder
	Logger     *slog.Logger
	Progress   func(Progress)
	Now        func() time.Time
}

// Orchestrator drives one run at a time over its collaborators.
type Orchestrator struct {
	deps   Deps
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// New validates deps and returns an idle Orchestrator.
func New(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Scanner == nil:
		return nil, errors.New("pipeline: scanner is required")
	case deps.Extractor == nil:
		return nil, errors.New("pipeline: extractor is required")
	case deps.Classifier == nil:
		return nil, errors.New("pipeline: classifier is required")
	case deps.Store == nil:
		return nil, errors.New("pipeline: store is required")
	case deps.URLs == nil:
		return nil, errors.New("pipeline: url generator is required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{
		deps:   deps,
		logger: logging.NewComponentLogger(deps.Logger, "pipeline"),
		state:  StateIdle,
	}, nil
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(ctx context.Context, s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	logging.WithContext(ctx, o.logger).Debug("state change", logging.String(logging.FieldState, string(s)))
}

// run carries the mutable bookkeeping of one Run call.
type run struct {
	summary       Summary
	opts          Options
	sinceSnapshot int
	completed     int
	total         int
	batches       int
	batch         int
}

// Run scans opts.Roots and catalogs every pending file. The returned error is
// non-nil only when the run ends Failed; the Summary is always populated.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BackupInterval <= 0 {
		opts.BackupInterval = defaultBackupInterval
	}

	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	r := &run{
		opts: opts,
		summary: Summary{
			RunID:      opts.RunID,
			Resume:     opts.Resume,
			ByCategory: make(map[classify.Category]int),
			StartedAt:  o.deps.Now(),
		},
	}
	ctx = logging.WithRunID(ctx, r.summary.RunID)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_started"),
		logging.Int("roots", len(opts.Roots)),
		logging.Bool("resume", opts.Resume),
		logging.Int("cataloged", o.deps.Store.Len()),
		logging.Int("batch_size", opts.BatchSize),
		logging.Int("limit", opts.Limit),
	)

	err := o.execute(ctx, r)
	return o.finish(ctx, r, err)
}

func (o *Orchestrator) execute(ctx context.Context, r *run) error {
	o.setState(ctx, StateScanning)
	pending := o.collect(ctx, r)
	r.total = len(pending)
	r.batches = (len(pending) + r.opts.BatchSize - 1) / r.opts.BatchSize
	o.report(r, StateScanning)

	for start := 0; start < len(pending); start += r.opts.BatchSize {
		if ctx.Err() != nil {
			r.summary.Interrupted = true
			break
		}
		r.batch++
		end := min(start+r.opts.BatchSize, len(pending))
		if err := o.processBatch(logging.WithBatch(ctx, r.batch), r, pending[start:end]); err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		r.summary.Interrupted = true
	}
	return nil
}

// collect drains the scan into the pending list, counting skips. The whole
// scan is counted even once Limit has filled the pending list.
func (o *Orchestrator) collect(ctx context.Context, r *run) []scan.Candidate {
	var pending []scan.Candidate
	for entry := range o.deps.Scanner.Scan(ctx, r.opts.Roots) {
		r.summary.Found++
		switch {
		case entry.Skip == scan.SkipDuplicate:
			r.summary.Duplicates++
			continue
		case entry.Skipped():
			r.summary.SkippedInvalid++
			logging.WithContext(ctx, o.logger).Debug("file skipped",
				logging.String(logging.FieldPath, entry.Candidate.Path),
				logging.String("reason", string(entry.Skip)),
				logging.Error(entry.Err),
			)
			continue
		case r.opts.Resume && o.deps.Store.Contains(entry.Candidate.Fingerprint):
			r.summary.SkippedDone++
			continue
		}
		if r.opts.Limit > 0 && len(pending) >= r.opts.Limit {
			continue
		}
		pending = append(pending, entry.Candidate)
	}
	return pending
}

type outcome struct {
	cand    scan.Candidate
	vector  features.Vector
	result  classify.Result
	failure *FileFailure
}

func (o *Orchestrator) processBatch(ctx context.Context, r *run, batch []scan.Candidate) error {
	logger := logging.WithContext(ctx, o.logger)
	outcomes := make([]outcome, len(batch))

	// In-flight files always finish; cancellation only stops the next batch.
	work := context.WithoutCancel(ctx)

	o.setState(ctx, StateExtractingBatch)
	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for i, cand := range batch {
		outcomes[i].cand = cand
		g.Go(func() error {
			outcomes[i].vector, outcomes[i].failure = o.extractOne(work, cand)
			return nil
		})
	}
	_ = g.Wait()

	o.setState(ctx, StateClassifyingBatch)
	for i := range outcomes {
		if outcomes[i].failure == nil {
			o.classifyOne(&outcomes[i])
		}
	}

	o.setState(ctx, StatePersistingBatch)
	for i := range outcomes {
		oc := &outcomes[i]
		if oc.failure != nil {
			o.recordFailure(ctx, r, *oc.failure)
			continue
		}
		rec := o.buildRecord(oc)
		err := o.deps.Store.Append(work, rec)
		switch {
		case errors.Is(err, catalog.ErrDuplicateRecord):
			r.summary.SkippedDone++
			r.completed++
			o.report(r, StatePersistingBatch)
			continue
		case err != nil:
			logging.ErrorWithContext(logger, "record store write failed", "store_write_failed",
				logging.String(logging.FieldPath, oc.cand.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix the catalog volume, then rerun with --resume"),
			)
			return err
		}

		r.summary.Processed++
		r.summary.ByCategory[oc.result.Category]++
		r.completed++
		logger.Debug("file cataloged",
			logging.String(logging.FieldPath, oc.cand.Path),
			logging.String("category", string(oc.result.Category)),
			logging.Float64("confidence", oc.result.Confidence),
		)
		o.report(r, StatePersistingBatch)

		r.sinceSnapshot++
		if r.sinceSnapshot >= r.opts.BackupInterval {
			o.snapshot(ctx, r)
		}
	}
	logger.Info("batch complete",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("files", len(batch)),
		logging.Int("processed_total", r.summary.Processed),
		logging.Int("failed_total", r.summary.Failed),
	)
	return nil
}

// extractOne calls the extractor and converts any error or panic into a
// per-file failure.
func (o *Orchestrator) extractOne(ctx context.Context, cand scan.Candidate) (vec features.Vector, failure *FileFailure) {
	defer func() {
		if p := recover(); p != nil {
			failure = &FileFailure{
				Path:  cand.Path,
				Stage: StageExtract,
				Cause: fmt.Errorf("%w: panic: %v", extract.ErrExtractionFailed, p),
			}
		}
	}()
	vec, err := o.deps.Extractor.Extract(ctx, cand.Path)
	if err != nil {
		stage := StageExtract
		if errors.Is(err, features.ErrInvalidFeatureVector) {
			stage = StageValidate
		}
		return features.Vector{}, &FileFailure{Path: cand.Path, Stage: stage, Cause: err}
	}
	return vec.Clone(), nil
}

func (o *Orchestrator) classifyOne(oc *outcome) {
	if !oc.vector.DurationSeconds.Valid && o.deps.Metadata != nil {
		if meta, ok := o.deps.Metadata.Lookup(oc.cand.Filename); ok && meta.DurationSeconds > 0 {
			oc.vector.DurationSeconds = features.F(meta.DurationSeconds)
		}
	}
	if err := oc.vector.Validate(); err != nil {
		oc.failure = &FileFailure{Path: oc.cand.Path, Stage: StageValidate, Cause: err}
		return
	}
	res, err := o.deps.Classifier.Classify(oc.vector)
	if err != nil {
		oc.failure = &FileFailure{Path: oc.cand.Path, Stage: StageClassify, Cause: err}
		return
	}
	oc.result = res
}

func (o *Orchestrator) buildRecord(oc *outcome) catalog.Record {
	rec := catalog.Record{
		Filename:    oc.cand.Filename,
		Path:        oc.cand.Path,
		Fingerprint: oc.cand.Fingerprint,
		FileSize:    oc.cand.Size,
		ModTime:     oc.cand.ModTime,
		Features:    oc.vector,
		Category:    oc.result.Category,
		Confidence:  oc.result.Confidence,
		Breakdown:   oc.result.Breakdown,
		RemoteURL:   o.deps.URLs.URL(oc.cand.Source, oc.cand.Filename),
		Source:      oc.cand.Source,
		ProcessedAt: o.deps.Now().UTC(),
	}
	if o.deps.Metadata != nil {
		if meta, ok := o.deps.Metadata.Lookup(oc.cand.Filename); ok {
			rec.Title = meta.Title
			rec.KitCategory = meta.Category
			rec.Tags = meta.Tags
			rec.Description = meta.Description
		}
	}
	return rec
}

func (o *Orchestrator) recordFailure(ctx context.Context, r *run, f FileFailure) {
	r.summary.Failed++
	r.summary.Failures = append(r.summary.Failures, f)
	r.completed++
	logging.WarnWithContext(logging.WithContext(ctx, o.logger), "file not cataloged", "file_failed",
		logging.String(logging.FieldPath, f.Path),
		logging.String("stage", string(f.Stage)),
		logging.Error(f.Cause),
		logging.String(logging.FieldImpact, "file is retried on the next resume"),
		logging.String(logging.FieldErrorHint, "inspect the file or the analyzer output"),
	)
	o.report(r, StatePersistingBatch)
}

func (o *Orchestrator) snapshot(ctx context.Context, r *run) {
	path, err := o.deps.Store.Snapshot()
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "snapshot failed", "snapshot_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "catalog has no recent backup"),
			logging.String(logging.FieldErrorHint, "check free space in the backup directory"),
		)
		return
	}
	r.sinceSnapshot = 0
	r.summary.Snapshots = append(r.summary.Snapshots, path)
}

func (o *Orchestrator) report(r *run, s State) {
	if o.deps.Progress == nil {
		return
	}
	o.deps.Progress(Progress{
		State:     s,
		Batch:     r.batch,
		Batches:   r.batches,
		Completed: r.completed,
		Total:     r.total,
	})
}

// finish drains the run: it takes the final snapshot, settles the terminal
// state, and records history.
func (o *Orchestrator) finish(ctx context.Context, r *run, runErr error) (Summary, error) {
	ctx = context.WithoutCancel(ctx)
	logger := logging.WithContext(ctx, o.logger)

	if runErr == nil {
		o.setState(ctx, StateDraining)
	}
	if r.sinceSnapshot > 0 || r.summary.Interrupted || runErr != nil {
		o.snapshot(ctx, r)
	}

	final := StateDone
	if runErr != nil {
		final = StateFailed
	}
	o.setState(ctx, final)
	r.summary.State = final
	r.summary.Elapsed = o.deps.Now().Sub(r.summary.StartedAt)

	o.recordHistory(ctx, r, runErr)

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "run_finished"),
		logging.String(logging.FieldState, string(final)),
		logging.Int("found", r.summary.Found),
		logging.Int("processed", r.summary.Processed),
		logging.Int("failed", r.summary.Failed),
		logging.Int("skipped_done", r.summary.SkippedDone),
		logging.Bool("interrupted", r.summary.Interrupted),
		logging.Duration("elapsed", r.summary.Elapsed),
	}
	if runErr != nil {
		logging.ErrorWithContext(logger, "run failed", "run_failed", append(attrs,
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, "committed records are intact; rerun with --resume"),
		)...)
		return r.summary, runErr
	}
	logger.Info("run finished", logging.Args(attrs...)...)
	return r.summary, nil
}

func (o *Orchestrator) recordHistory(ctx context.Context, r *run, runErr error) {
	if o.deps.History == nil {
		return
	}
	s := r.summary
	entry := history.Run{
		ID:             s.RunID,
		StartedAt:      s.StartedAt,
		FinishedAt:     s.StartedAt.Add(s.Elapsed),
		State:          string(s.State),
		Resume:         s.Resume,
		Interrupted:    s.Interrupted,
		Found:          s.Found,
		SkippedDone:    s.SkippedDone,
		SkippedInvalid: s.SkippedInvalid,
		Duplicates:     s.Duplicates,
		Processed:      s.Processed,
		Failed:         s.Failed,
		Snapshots:      len(s.Snapshots),
		ByCategory:     make(map[string]int, len(s.ByCategory)),
	}
	for _, root := range r.opts.Roots {
		entry.Roots = append(entry.Roots, root.Name+"="+root.Path)
	}
	for cat, n := range s.ByCategory {
		entry.ByCategory[string(cat)] = n
	}
	for _, f := range s.Failures {
		entry.Failures = append(entry.Failures, history.Failure{
			Path:  f.Path,
			Stage: string(f.Stage),
			Cause: strings.TrimSpace(fmt.Sprint(f.Cause)),
		})
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	if err := o.deps.History.Record(ctx, entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "run history not recorded", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is missing from the runs listing"),
			logging.String(logging.FieldErrorHint, "check the history database path"),
		)
	}
}
