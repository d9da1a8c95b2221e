package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bookvoice/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines    int
		followOn bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the log of the most recent run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := logs.Latest(cfg.Paths.LogDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if path == "" {
				fmt.Fprintln(out, "No run logs found")
				return nil
			}

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			for followOn {
				result, err = logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: result.Offset, Follow: true, Wait: time.Minute})
				if err != nil {
					if errors.Is(err, cmd.Context().Err()) {
						return nil
					}
					return err
				}
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&followOn, "follow", "f", false, "Keep printing new lines until interrupted")
	return cmd
}
