package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sdsscan/internal/ingest"
	"sdsscan/internal/logging"
	"sdsscan/internal/merge"
	"sdsscan/internal/runner"
	"sdsscan/internal/textract"
	"sdsscan/internal/vendors"
)

type inspectResult struct {
	Path       string         `json:"path"`
	Vendor     string         `json:"vendor"`
	Flavor     string         `json:"flavor"`
	Fallback   bool           `json:"fallback"`
	Matches    []inspectMatch `json:"matches"`
	Candidates []inspectMatch `json:"candidates"`
}

type inspectMatch struct {
	Label    string  `json:"label"`
	Category string  `json:"category,omitempty"`
	Score    float64 `json:"score,omitempty"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <vendor> <file>",
		Short: "Show the flavor name, ingredient matches and store candidates for one document",
		Long: `Run name extraction and ingredient scanning on a single document using
the given vendor's rule. Nothing is written to the store.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			code, err := vendors.ParseCode(args[0])
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Writer: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			s, err := runner.OpenStore(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer s.Close()
			signatures, err := s.ListIngredientSignatures(cmd.Context())
			if err != nil {
				return fmt.Errorf("load signatures: %w", err)
			}

			ingester := ingest.NewRunner(ingest.Options{
				DocumentsDir: cfg.Paths.DocumentsDir,
				Timeout:      cfg.ExtractionTimeout(),
			}, textract.NewDispatch(cfg.Extraction.Command), signatures, logger)
			doc, err := ingester.Document(cmd.Context(), code, args[1])
			if err != nil {
				return err
			}

			result := inspectResult{Path: doc.Path, Vendor: string(code), Flavor: doc.Flavor, Fallback: doc.Fallback}
			for _, m := range doc.Matches {
				result.Matches = append(result.Matches, inspectMatch{
					Label:    fmt.Sprintf("%s (%s)", m.Name, m.Identifier),
					Category: m.Category,
				})
			}
			if doc.Flavor != "" {
				candidates, err := s.SearchFlavors(cmd.Context(), merge.QueryTokens(doc.Flavor), string(code))
				if err != nil {
					return fmt.Errorf("search flavors: %w", err)
				}
				for _, r := range merge.Rank(string(code)+" "+doc.Flavor, candidates) {
					result.Candidates = append(result.Candidates, inspectMatch{
						Label: r.Candidate.Label(),
						Score: r.Score,
					})
				}
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, result)
			}
			printInspectResult(cmd, result)
			return nil
		},
	}
}

func printInspectResult(cmd *cobra.Command, r inspectResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Document: %s\n", r.Path)
	flavor := r.Flavor
	switch {
	case flavor == "":
		flavor = "(no text extracted)"
	case r.Fallback:
		flavor += " (from filename)"
	}
	fmt.Fprintf(out, "Flavor:   %s\n", flavor)

	if len(r.Matches) == 0 {
		fmt.Fprintln(out, "No flagged ingredients found")
	} else {
		rows := make([][]string, 0, len(r.Matches))
		for _, m := range r.Matches {
			rows = append(rows, []string{m.Label, m.Category})
		}
		fmt.Fprintln(out, renderTable([]string{"Ingredient", "Category"}, rows, nil))
	}

	if r.Flavor == "" {
		return
	}
	if len(r.Candidates) == 0 {
		fmt.Fprintln(out, "No matching flavors in the store")
		return
	}
	rows := make([][]string, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		rows = append(rows, []string{c.Label, fmt.Sprintf("%.2f", c.Score)})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Store flavor", "Similarity"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
}
