package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"soundcatalog/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigShowCommand(ctx), newConfigValidateCommand(ctx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		path      string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := config.WriteSample(path, overwrite)
			if err != nil {
				return fmt.Errorf("%w (use --overwrite to replace it)", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(cmd.OutOrStdout(), "Point [[sources]] at your audio libraries before running soundcatalog.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "Destination (defaults to the user config location)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			origin := "defaults (no config file found)"
			if ctx.configRead {
				origin = ctx.configPath
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", origin, data)
			return nil
		},
	}
}

// newConfigValidateCommand loads the configuration and lists its sources so
// a typo in a library path shows up before a run.
func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configRead {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			for _, src := range cfg.Sources {
				state := "ok"
				if info, err := os.Stat(src.Path); err != nil || !info.IsDir() {
					state = "missing"
				}
				fmt.Fprintf(out, "Source %s: %s (%s)\n", src.Name, src.Path, state)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
