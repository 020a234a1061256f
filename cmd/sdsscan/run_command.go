package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"sdsscan/internal/config"
	"sdsscan/internal/preflight"
	"sdsscan/internal/runner"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runner.Options
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan every vendor's documents and merge findings into the store",
		Long: `Scan vendor documents in the fixed vendor order, extract flavor names,
look for seeded ingredient identifiers, and record new flavor/ingredient
associations. Manual overrides are applied last.

Extraction failures and lookup misses are logged and skipped; a store
failure stops the run. Running twice never duplicates an association.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !skipPreflight {
				if err := gatePreflight(runCtx, cmd, cfg); err != nil {
					return err
				}
			}

			opts.OverridesPath = strings.TrimSpace(opts.OverridesPath)
			report, err := runner.Run(runCtx, cfg, opts)
			if ctx.JSONMode() {
				if jerr := writeJSON(cmd, reportJSON(report)); jerr != nil && err == nil {
					err = jerr
				}
			} else if report.RunID != "" {
				printRunReport(cmd.OutOrStdout(), report)
			}
			return err
		},
	}

	cmd.Flags().StringSliceVar(&opts.Vendors, "vendor", nil, "Restrict the run to these vendor codes (repeatable)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Extract and scan without writing to the store")
	cmd.Flags().StringVar(&opts.OverridesPath, "overrides", "", "Override file to apply instead of paths.overrides_path")
	cmd.Flags().BoolVar(&opts.SkipOverrides, "no-overrides", false, "Do not apply manual overrides")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start without running preflight checks")

	return cmd
}

// gatePreflight prints failed required checks and refuses to start.
func gatePreflight(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	failed := preflight.Failed(preflight.RunAll(ctx, cfg))
	if len(failed) == 0 {
		return nil
	}
	out := cmd.ErrOrStderr()
	colorize := shouldColorize(out)
	for _, line := range preflightLines(failed, colorize) {
		fmt.Fprintln(out, line)
	}
	return fmt.Errorf("preflight failed: %d checks did not pass (see `sdsscan check`)", len(failed))
}
