package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sdsscan/internal/runner"
	"sdsscan/internal/seed"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Create, seed and inspect the store",
	}

	dbCmd.AddCommand(newDBInitCommand(ctx))
	dbCmd.AddCommand(newDBSeedCommand(ctx))
	dbCmd.AddCommand(newDBStatusCommand(ctx))

	return dbCmd
}

func newDBInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			s, err := runner.OpenStore(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Store ready: %s\n", storeTarget(cfg))
			return nil
		},
	}
}

func newDBSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <catalog.yaml>",
		Short: "Load categories, ingredients, vendors and flavors from a catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalog, err := seed.Load(args[0])
			if err != nil {
				return err
			}
			s, err := runner.OpenStore(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := seed.Apply(cmd.Context(), s, catalog)
			if err != nil {
				return fmt.Errorf("seed store: %w", err)
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]int{
					"categories":  result.Categories,
					"ingredients": result.Ingredients,
					"vendors":     result.Vendors,
					"flavors":     result.Flavors,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d categories, %d ingredients, %d vendors, %d flavors\n",
				result.Categories, result.Ingredients, result.Vendors, result.Flavors)
			return nil
		},
	}
}

func newDBStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show row counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			s, err := runner.OpenStore(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer s.Close()

			counts, err := s.Counts(cmd.Context())
			if err != nil {
				return fmt.Errorf("count rows: %w", err)
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"store":        storeTarget(cfg),
					"vendors":      counts.Vendors,
					"flavors":      counts.Flavors,
					"ingredients":  counts.Ingredients,
					"associations": counts.Associations,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Store: %s\n", storeTarget(cfg))
			fmt.Fprintln(out, renderTable(
				[]string{"Table", "Rows"},
				[][]string{
					{"vendors", fmt.Sprintf("%d", counts.Vendors)},
					{"flavors", fmt.Sprintf("%d", counts.Flavors)},
					{"ingredients", fmt.Sprintf("%d", counts.Ingredients)},
					{"associations", fmt.Sprintf("%d", counts.Associations)},
				},
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
