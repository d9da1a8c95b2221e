package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bookvoice/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check directories, free space and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, remote)
			out := cmd.OutOrStdout()
			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			}
			printPreflight(out, results, stdoutIsTerminal())
			if preflight.Failed(results) {
				return errors.New("preflight failed")
			}
			fmt.Fprintln(out, "All required checks passed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Also check the translation API (sends one request)")
	return cmd
}

func printPreflight(out io.Writer, results []preflight.Result, color bool) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{statusMark(r.Passed, r.Optional, color), r.Name, r.Detail})
	}
	fmt.Fprint(out, renderTable([]string{"Status", "Check", "Detail"}, rows, nil))
}
