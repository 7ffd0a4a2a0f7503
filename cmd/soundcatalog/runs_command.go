package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"soundcatalog/internal/history"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var failuresFor string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.Paths.HistoryPath)
			if err != nil {
				return err
			}
			defer store.Close()
			out := cmd.OutOrStdout()

			if id := strings.TrimSpace(failuresFor); id != "" {
				run, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if len(run.Failures) == 0 {
					fmt.Fprintf(out, "Run %s had no failed files\n", run.ID)
					return nil
				}
				rows := make([][]string, 0, len(run.Failures))
				for _, f := range run.Failures {
					rows = append(rows, []string{f.Path, f.Stage, f.Cause})
				}
				fmt.Fprintln(out, renderTable([]string{"Path", "Stage", "Cause~"}, rows))
				return nil
			}

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				state := run.State
				if run.Interrupted {
					state += " (interrupted)"
				}
				rows = append(rows, []string{
					run.ID,
					humanize.Time(run.StartedAt),
					state,
					yesNo(run.Resume),
					strconv.Itoa(run.Found),
					strconv.Itoa(run.Processed),
					strconv.Itoa(run.Failed),
					run.Elapsed().Round(time.Second).String(),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "State", "Resume", "Found>", "Processed>", "Failed>", "Elapsed>"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().StringVar(&failuresFor, "failures", "", "Show the failed files of one run")
	return cmd
}
