package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"soundcatalog/internal/classify"
	"soundcatalog/internal/config"
	"soundcatalog/internal/extract"
	"soundcatalog/internal/history"
	"soundcatalog/internal/kitmeta"
	"soundcatalog/internal/logging"
	"soundcatalog/internal/pipeline"
	"soundcatalog/internal/preflight"
	"soundcatalog/internal/remoteref"
	"soundcatalog/internal/scan"
)

type runFlags struct {
	sources   []string
	output    string
	batchSize int
	workers   int
	resume    bool
	testMode  bool
	noHistory bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan sources and catalog every new audio file",
		Long: "Scan the configured sources (or those given with --source), extract and classify\n" +
			"each audio file, and append the results to the catalog. With --resume, files\n" +
			"already in the catalog are skipped before extraction; without it they are\n" +
			"extracted again but never appended twice. Cataloged rows are never removed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runCatalog(cmd.Context(), ctx, cfg, flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringArrayVarP(&flags.sources, "source", "s", nil, "Source as name=path or path (repeatable; overrides configured sources)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Catalog file path (defaults to paths.catalog_path)")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", 0, "Files per batch (defaults to processing.batch_size)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Concurrent extractions per batch (defaults to processing.workers)")
	cmd.Flags().BoolVar(&flags.resume, "resume", false, "Skip files already in the catalog before extraction")
	cmd.Flags().BoolVar(&flags.testMode, "test-mode", false, "Process at most processing.test_sample_size files")
	cmd.Flags().BoolVar(&flags.noHistory, "no-history", false, "Do not record this run in the history database")
	return cmd
}

func runCatalog(ctx context.Context, cmdCtx *commandContext, cfg *config.Config, flags runFlags, out, errOut io.Writer) error {
	roots, err := resolveRoots(cfg, flags.sources)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	sink, err := cmdCtx.newRunLogger(runID)
	if err != nil {
		return err
	}
	defer sink.Close()
	logger, logPath := sink.Logger, sink.Path

	catalogPath, err := cmdCtx.catalogPath(flags.output)
	if err != nil {
		return err
	}
	if err := checkReady(ctx, cfg, catalogPath); err != nil {
		return err
	}
	store, err := cmdCtx.openCatalog(catalogPath, logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	classifier, err := classify.New(cfg.Thresholds())
	if err != nil {
		return fmt.Errorf("classifier thresholds: %w", err)
	}

	deps := pipeline.Deps{
		Scanner:    scan.New(cfg.Processing.Extensions, logger),
		Extractor:  extract.FromConfig(cfg, logger),
		Classifier: classifier,
		Store:      store,
		URLs:       remoteref.FromConfig(cfg),
		Logger:     logger,
	}

	if meta := loadKitMetadata(cfg, logger); meta != nil {
		deps.Metadata = meta
	}

	if !flags.noHistory && cfg.Paths.HistoryPath != "" {
		hist, err := history.Open(cfg.Paths.HistoryPath)
		if err != nil {
			logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "this run will not appear in `soundcatalog runs`"),
				logging.String(logging.FieldErrorHint, "check paths.history_path"),
			)
		} else {
			defer hist.Close()
			deps.History = hist
		}
	}

	progress := newRunProgress(errOut)
	deps.Progress = progress.update

	orch, err := pipeline.New(deps)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		RunID:          runID,
		Roots:          roots,
		BatchSize:      firstPositive(flags.batchSize, cfg.Processing.BatchSize),
		Workers:        firstPositive(flags.workers, cfg.Processing.Workers),
		Resume:         flags.resume,
		BackupInterval: cfg.Processing.BackupInterval,
	}
	if flags.testMode || cfg.Processing.TestMode {
		opts.Limit = cfg.Processing.TestSampleSize
	}

	summary, runErr := orch.Run(ctx, opts)
	progress.finish()

	fmt.Fprintln(out, renderSummary(summary, store.Path()))
	if logPath != "" {
		fmt.Fprintf(out, "Log: %s\n", logPath)
	}
	if runErr != nil {
		return fmt.Errorf("run %s failed: %w", summary.RunID, runErr)
	}
	if summary.Interrupted {
		fmt.Fprintln(out, "Run interrupted; rerun with --resume to continue.")
	}
	return nil
}

// resolveRoots turns --source values into scan roots. A bare path takes its
// name from the library layout; name=path names it explicitly. Without
// flags the configured sources are used.
func resolveRoots(cfg *config.Config, values []string) ([]scan.Root, error) {
	if len(values) == 0 {
		if len(cfg.Sources) == 0 {
			return nil, errors.New("no sources configured; add [[sources]] to the config or pass --source")
		}
		roots := make([]scan.Root, 0, len(cfg.Sources))
		for _, src := range cfg.Sources {
			roots = append(roots, scan.Root{Name: src.Name, Path: src.Path})
		}
		return roots, nil
	}

	roots := make([]scan.Root, 0, len(values))
	for _, value := range values {
		name, path, ok := strings.Cut(value, "=")
		if !ok {
			path, name = value, ""
		}
		path = strings.TrimSpace(path)
		if path == "" {
			return nil, fmt.Errorf("--source %q: path is empty", value)
		}
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return nil, fmt.Errorf("--source %q: %w", value, err)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			if src, found := cfg.FindSource(filepath.Base(expanded)); found {
				name = src.Name
			} else {
				name = remoteref.InferSource(expanded)
			}
		}
		roots = append(roots, scan.Root{Name: name, Path: expanded})
	}
	return roots, nil
}

func loadKitMetadata(cfg *config.Config, logger *slog.Logger) *kitmeta.Index {
	if cfg.Paths.KitFile == "" {
		return nil
	}
	idx, err := kitmeta.Load(cfg.Paths.KitFile)
	if err != nil {
		logging.WarnWithContext(logger, "kit metadata unavailable", "kit_load_failed",
			logging.String(logging.FieldPath, cfg.Paths.KitFile),
			logging.Error(err),
			logging.String(logging.FieldImpact, "records are written without titles or tags"),
			logging.String(logging.FieldErrorHint, "check paths.kit_file"),
		)
		return nil
	}
	for _, rejected := range idx.Rejected {
		logger.Debug("kit line rejected",
			logging.String(logging.FieldPath, cfg.Paths.KitFile),
			logging.Int("line", rejected.Line),
			logging.String("reason", rejected.Reason),
		)
	}
	logger.Info("kit metadata loaded",
		logging.String(logging.FieldEventType, "kit_loaded"),
		logging.Int("entries", idx.Len()),
		logging.Int("rejected", len(idx.Rejected)),
	)
	return idx
}

// checkReady runs the required preflight checks against the catalog the run
// will write.
func checkReady(ctx context.Context, cfg *config.Config, catalogPath string) error {
	if err := os.MkdirAll(filepath.Dir(catalogPath), 0o755); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}
	effective := *cfg
	effective.Paths.CatalogPath = catalogPath
	blocking := preflight.Blocking(preflight.RunAll(ctx, &effective))
	if len(blocking) == 0 {
		return nil
	}
	problems := make([]string, 0, len(blocking))
	for _, r := range blocking {
		problems = append(problems, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed (see `soundcatalog doctor`):\n  %s", strings.Join(problems, "\n  "))
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
