package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	root := &cobra.Command{
		Use:           "soundcatalog",
		Short:         "Classify and catalog audio libraries",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	groups := []struct {
		id, title string
		commands  []*cobra.Command
	}{
		{"catalog", "Cataloging:", []*cobra.Command{
			newRunCommand(ctx), newClassifyCommand(ctx),
		}},
		{"inspect", "Inspecting results:", []*cobra.Command{
			newStatsCommand(ctx), newExportCommand(ctx), newRunsCommand(ctx), newLogsCommand(ctx),
		}},
		{"maintain", "Maintenance:", []*cobra.Command{
			newValidateCommand(ctx), newSnapshotCommand(ctx), newDoctorCommand(ctx), newConfigCommand(ctx),
		}},
	}
	for _, g := range groups {
		root.AddGroup(&cobra.Group{ID: g.id, Title: g.title})
		for _, cmd := range g.commands {
			cmd.GroupID = g.id
			root.AddCommand(cmd)
		}
	}
	return root
}
