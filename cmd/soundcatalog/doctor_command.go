package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"soundcatalog/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check paths and external programs a run needs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				switch {
				case !r.Passed && r.Required:
					status = "FAIL"
				case !r.Passed:
					status = "warn"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Status", "Detail~"}, rows))
			if blocking := preflight.Blocking(results); len(blocking) > 0 {
				return fmt.Errorf("%d required check(s) failed", len(blocking))
			}
			return nil
		},
	}
}
