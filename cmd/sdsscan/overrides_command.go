package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sdsscan/internal/merge"
	"sdsscan/internal/runner"
)

func newOverridesCommand(ctx *commandContext) *cobra.Command {
	overridesCmd := &cobra.Command{
		Use:   "overrides",
		Short: "Manual vendor/flavor/ingredient associations",
	}
	overridesCmd.AddCommand(newOverridesApplyCommand(ctx))
	return overridesCmd
}

func newOverridesApplyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "apply [file]",
		Short: "Merge a CSV or XLSX override file into the store",
		Long: `Merge rows with the header vendor, flavor, ingredient. Flavors are matched
by exact name within the vendor and ingredients by exact name. Rows that
resolve to nothing are logged and skipped. Defaults to paths.overrides_path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := runner.ApplyOverrides(runCtx, cfg, path, runner.Options{})
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, summaryJSON(summary))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Outcome", "Rows"},
				overrideRows(summary),
				[]columnAlignment{alignLeft, alignRight},
			))
			fmt.Fprintf(out, "%d rows: %d inserted, %d skipped\n", summary.Processed, summary.Inserted(), summary.Skipped())
			return nil
		},
	}
}

func overrideRows(s merge.Summary) [][]string {
	var rows [][]string
	for _, r := range summaryRows(s, merge.Summary{}) {
		rows = append(rows, r[:2])
	}
	return rows
}
