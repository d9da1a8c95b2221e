package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bookvoice/internal/config"
	"bookvoice/internal/preflight"
	"bookvoice/internal/runner"
	"bookvoice/internal/source"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		start         int
		end           int
		skipPreflight bool
		noProgress    bool
	)

	cmd := &cobra.Command{
		Use:   "run <sentences.txt>",
		Short: "Translate, narrate and export a sentence file",
		Long: `Translate, narrate and export a sentence file.

The input holds one sentence per line; empty lines are skipped. Sentences are
exported in batches as they complete, so an interrupted run (Ctrl-C) keeps
every batch finished so far plus the partial batch in flight.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if start < 0 || end < 0 || (end > 0 && start > end) {
				return fmt.Errorf("invalid sentence range %d-%d", start, end)
			}

			sourcePath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !skipPreflight {
				results := preflight.RunAll(cmd.Context(), cfg, false)
				if preflight.Failed(results) {
					printPreflight(out, results, stdoutIsTerminal())
					return errors.New("preflight failed; fix the checks above or pass --skip-preflight")
				}
			}

			opts := runner.Options{
				SourcePath: sourcePath,
				Range:      source.Range{Start: start, End: end},
			}
			if !noProgress && stderrIsTerminal() {
				opts.Progress = os.Stderr
			}

			summary, err := runner.Run(cmd.Context(), cfg, opts)
			if err != nil {
				if errors.Is(err, source.ErrEmptyRange) {
					return fmt.Errorf("%s: %w", sourcePath, err)
				}
				return err
			}
			printRunSummary(out, cfg, summary)
			return nil
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "First sentence to process (1-based, inclusive)")
	cmd.Flags().IntVar(&end, "end", 0, "Last sentence to process (1-based, inclusive)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start without running readiness checks")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the terminal progress bar")
	return cmd
}

func printRunSummary(out io.Writer, cfg *config.Config, summary runner.Summary) {
	stats := summary.Stats
	status := "completed"
	if stats.Cancelled {
		status = "cancelled"
	}

	sentenceRange := "-"
	if stats.Total > 0 {
		sentenceRange = fmt.Sprintf("%d-%d", summary.First, summary.First+stats.Total-1)
	}

	rows := [][]string{
		{"Run", summary.RunID},
		{"Status", status},
		{"Sentences", sentenceRange},
		{"Sequenced", fmt.Sprintf("%s/%s", humanize.Comma(int64(stats.Sequenced)), humanize.Comma(int64(stats.Total)))},
		{"Degraded", strconv.Itoa(stats.Degraded)},
		{"Batches exported", strconv.Itoa(len(stats.Exports))},
		{"Export failures", strconv.Itoa(stats.ExportFailures)},
		{"Video", yesNo(cfg.Render.Enabled)},
		{"Elapsed", stats.Elapsed.Round(time.Millisecond).String()},
		{"Throughput", fmt.Sprintf("%.2f sentences/s", summary.Snapshot.Throughput)},
		{"Output", summary.OutputDir},
	}
	fmt.Fprint(out, renderTable([]string{"Field", "Value"}, rows, nil))

	if stats.Forced {
		fmt.Fprintf(out, "Run interrupted; %s sentences were not narrated.\n",
			humanize.Comma(int64(stats.Total-stats.Sequenced)))
	}
	if len(stats.Exports) > 0 {
		labels := make([]string, 0, len(stats.Exports))
		for _, r := range stats.Exports {
			labels = append(labels, r.RangeLabel)
		}
		fmt.Fprintf(out, "Exported batches: %s\n", strings.Join(labels, ", "))
	}
}
