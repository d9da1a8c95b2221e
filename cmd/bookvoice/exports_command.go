package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bookvoice/internal/catalog"
)

func newExportsCommand(ctx *commandContext) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "exports",
		Short: "List committed export batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.OpenConfig(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), strings.TrimSpace(runID))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No exports recorded")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					shortID(e.RunID),
					e.RangeLabel,
					strconv.Itoa(len(e.Artifacts)),
					strings.Join(e.Artifacts, ", "),
					humanize.Time(e.CommittedAt),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Run", "Range", "Files", "Artifacts", "Committed"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Only list batches of this run ID")
	return cmd
}

func newRunsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.OpenConfig(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.ID,
					r.SourcePath,
					string(r.Status),
					fmt.Sprintf("%s/%s", humanize.Comma(int64(r.Sequenced)), humanize.Comma(int64(r.Total))),
					strconv.Itoa(r.Exports),
					humanize.Time(r.StartedAt),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"ID", "Source", "Status", "Sentences", "Batches", "Started"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
