package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sdsscan/internal/logging"
	"sdsscan/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var runID string
	var list bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the most recent run log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if list {
				runs, err := logs.List(cfg.Paths.LogDir)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "No run logs found")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{r.RunID, r.ModTime.Format(time.DateTime), formatBytes(r.Size)})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Modified", "Size"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
				return nil
			}

			var path string
			if id := strings.TrimSpace(runID); id != "" {
				path = logging.RunLogPath(cfg.Paths.LogDir, id)
				if _, err := os.Stat(path); err != nil {
					return fmt.Errorf("run log %s: %w", filepath.Base(path), err)
				}
			} else {
				latest, err := logs.Latest(cfg.Paths.LogDir)
				if err != nil {
					return err
				}
				path = latest.Path
			}

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			followCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			offset := result.Offset
			for {
				result, err := logs.Tail(followCtx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				if err != nil {
					return err
				}
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
				}
				offset = result.Offset
			}
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&runID, "run", "", "Show the log of this run ID instead of the latest")
	cmd.Flags().BoolVar(&list, "list", false, "List run logs instead of printing one")

	return cmd
}
