package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bookvoice/internal/logging"
	"bookvoice/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Manage staging directories",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staging directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stagingDir := strings.TrimSpace(cfg.Paths.StagingDir)
			dirs, err := staging.ListDirectories(stagingDir)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No staging directories found")
				return nil
			}

			fmt.Fprintf(out, "Staging directory: %s\n\n", stagingDir)

			var totalSize int64
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				totalSize += dir.Size
				rows = append(rows, []string{
					shortID(dir.Name),
					humanize.Time(dir.ModTime),
					humanize.Bytes(uint64(max(dir.Size, 0))),
				})
			}

			fmt.Fprint(out, renderTable(
				[]string{"Chunk", "Modified", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), humanize.Bytes(uint64(max(totalSize, 0))))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var cleanAll bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale staging directories",
		Long: `Remove staging directories left behind by interrupted exports.

By default, only directories older than pipeline.stale_staging_hours are
removed. Use --all to remove every staging directory; do not combine --all
with a run in progress.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			maxAge := time.Duration(cfg.Pipeline.StaleStagingHours) * time.Hour
			if cleanAll {
				maxAge = 0
			}
			result := staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, maxAge, logging.NewNop())

			out := cmd.OutOrStdout()
			for _, failure := range result.Errors {
				fmt.Fprintf(out, "Failed to remove %s: %v\n", failure.Path, failure.Error)
			}
			if len(result.Removed) == 0 {
				fmt.Fprintln(out, "No staging directories removed")
				return nil
			}
			fmt.Fprintf(out, "Removed %d staging directories\n", len(result.Removed))
			return nil
		},
	}

	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove all staging directories regardless of age")
	return cmd
}
