package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"soundcatalog/internal/catalog"
	"soundcatalog/internal/classify"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var repair bool
	var path string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the catalog file for corruption",
		Long: "Validate the catalog header and every row. A torn final row left by a crash\n" +
			"is reported as recoverable; pass --repair to truncate it away.",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := ctx.catalogPath(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			report, err := catalog.Validate(target)
			var corrupt *catalog.CorruptStoreError
			switch {
			case err == nil:
			case errors.As(err, &corrupt) && corrupt.Recoverable && repair:
				unlock, lockErr := catalog.Lock(target)
				if lockErr != nil {
					return lockErr
				}
				defer unlock() //nolint:errcheck
				var discarded int64
				report, discarded, err = catalog.Repair(target)
				if err != nil {
					return fmt.Errorf("repair catalog: %w", err)
				}
				fmt.Fprintf(out, "Repaired %s: discarded %s from a torn final row\n", target, humanize.Bytes(uint64(discarded)))
			case errors.As(err, &corrupt) && corrupt.Recoverable:
				return fmt.Errorf("%w (rerun with --repair to truncate the torn row)", err)
			default:
				return err
			}

			if report.Version == 0 {
				fmt.Fprintf(out, "Catalog %s is empty\n", target)
				return nil
			}
			fmt.Fprintf(out, "Catalog %s is valid: %d rows, schema v%d, %s\n",
				target, report.Rows, report.Version, humanize.Bytes(uint64(report.Bytes)))
			if report.Outdated() {
				fmt.Fprintf(out, "Schema v%d is older than v%d; the next run migrates it after a snapshot\n",
					report.Version, catalog.SchemaVersion)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "Truncate a recoverable torn final row")
	cmd.Flags().StringVarP(&path, "catalog", "f", "", "Catalog file path (defaults to paths.catalog_path)")
	return cmd
}

func newSnapshotCommand(ctx *commandContext) *cobra.Command {
	var path string
	var list bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write a verified backup of the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := ctx.catalogPath(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if list {
				snaps, err := catalog.Snapshots(target, cfg.Paths.BackupDir)
				if err != nil {
					return err
				}
				if len(snaps) == 0 {
					fmt.Fprintln(out, "No snapshots")
					return nil
				}
				rows := make([][]string, 0, len(snaps))
				for _, snap := range snaps {
					info, err := os.Stat(snap)
					if err != nil {
						continue
					}
					rows = append(rows, []string{
						filepath.Base(snap),
						humanize.Bytes(uint64(info.Size())),
						humanize.Time(info.ModTime()),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Snapshot", "Size>", "Taken"}, rows))
				return nil
			}

			store, err := ctx.openCatalog(target, ctx.logger())
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()
			snap, err := store.Snapshot()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Snapshot written to %s\n", snap)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "catalog", "f", "", "Catalog file path (defaults to paths.catalog_path)")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List existing snapshots instead of writing one")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := ctx.catalogPath(path)
			if err != nil {
				return err
			}
			stats, err := catalog.ComputeStats(target)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if stats.Rows == 0 {
				fmt.Fprintln(out, "Catalog is empty")
				return nil
			}

			fields := [][2]string{
				{"Records", humanize.Comma(int64(stats.Rows))},
				{"Total size", humanize.Bytes(uint64(stats.TotalBytes))},
				{"Total duration", (time.Duration(stats.TotalDuration * float64(time.Second))).Round(time.Second).String()},
				{"Mean confidence", strconv.FormatFloat(stats.MeanConfidence, 'f', 2, 64)},
				{"With kit metadata", humanize.Comma(int64(stats.WithMetadata))},
			}
			fmt.Fprintln(out, renderFields("Catalog "+target, fields))

			rows := make([][]string, 0, len(classify.Categories))
			for _, cat := range classify.Categories {
				rows = append(rows, []string{string(cat), strconv.Itoa(stats.ByCategory[cat]), percent(stats.ByCategory[cat], stats.Rows)})
			}
			fmt.Fprintln(out, renderTable([]string{"Category", "Records>", "Share>"}, rows))

			sources := make([]string, 0, len(stats.BySource))
			for name := range stats.BySource {
				sources = append(sources, name)
			}
			slices.Sort(sources)
			rows = rows[:0]
			for _, name := range sources {
				rows = append(rows, []string{name, strconv.Itoa(stats.BySource[name]), percent(stats.BySource[name], stats.Rows)})
			}
			fmt.Fprintln(out, renderTable([]string{"Source", "Records>", "Share>"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "catalog", "f", "", "Catalog file path (defaults to paths.catalog_path)")
	return cmd
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		path       string
		categories []string
		sources    []string
		minConf    float64
		maxConf    float64
	)

	cmd := &cobra.Command{
		Use:   "export OUT",
		Short: "Write a filtered copy of the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := ctx.catalogPath(path)
			if err != nil {
				return err
			}
			filter := catalog.Filter{
				Sources:       sources,
				MinConfidence: minConf,
				MaxConfidence: maxConf,
			}
			for _, value := range categories {
				cat, err := classify.ParseCategory(strings.TrimSpace(value))
				if err != nil {
					return err
				}
				filter.Categories = append(filter.Categories, cat)
			}
			if minConf < 0 || minConf > 1 || maxConf < 0 || maxConf > 1 {
				return errors.New("confidence bounds must be within [0, 1]")
			}
			if maxConf > 0 && minConf > maxConf {
				return errors.New("--min-confidence exceeds --max-confidence")
			}

			dst, err := ctx.catalogPath(args[0])
			if err != nil {
				return err
			}
			if dst == target {
				return errors.New("export destination must differ from the catalog")
			}
			n, err := catalog.Export(target, dst, filter)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", n, dst)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "catalog", "f", "", "Catalog file path (defaults to paths.catalog_path)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Categories to keep (song, sound_effect, ambiguous)")
	cmd.Flags().StringSliceVar(&sources, "source", nil, "Sources to keep")
	cmd.Flags().Float64Var(&minConf, "min-confidence", 0, "Minimum confidence")
	cmd.Flags().Float64Var(&maxConf, "max-confidence", 0, "Maximum confidence (0 means no bound)")
	return cmd
}

func percent(n, total int) string {
	if total == 0 {
		return "0%"
	}
	return strconv.FormatFloat(float64(n)*100/float64(total), 'f', 1, 64) + "%"
}
