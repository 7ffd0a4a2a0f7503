package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"soundcatalog/internal/classify"
	"soundcatalog/internal/config"
	"soundcatalog/internal/extract"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "classify FILE...",
		Short: "Classify files without touching the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			classifier, err := classify.New(cfg.Thresholds())
			if err != nil {
				return err
			}
			extractor := extract.FromConfig(cfg, ctx.logger())

			rows := make([][]string, 0, len(args))
			failed := 0
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				vec, err := extractor.Extract(cmd.Context(), path)
				if err == nil {
					var res classify.Result
					res, err = classifier.Classify(vec)
					if err == nil {
						detail := ""
						if verbose {
							detail = res.Breakdown.String()
						}
						rows = append(rows, []string{
							filepath.Base(path),
							string(res.Category),
							strconv.FormatFloat(res.Confidence, 'f', 2, 64),
							detail,
						})
						continue
					}
				}
				failed++
				rows = append(rows, []string{filepath.Base(path), "error", "", err.Error()})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File", "Category", "Confidence>", "Detail"}, rows))
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be classified", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show the per-factor score breakdown")
	return cmd
}
