package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"sdsscan/internal/merge"
	"sdsscan/internal/runner"
)

var outcomeOrder = []merge.Outcome{
	merge.OutcomeInserted,
	merge.OutcomeExisting,
	merge.OutcomeCategoryMissing,
	merge.OutcomeFlavorMissing,
	merge.OutcomeDeclined,
	merge.OutcomeIngredientMissing,
	merge.OutcomeUnresolved,
}

func printRunReport(out io.Writer, report runner.Report) {
	rows := make([][]string, 0, len(report.Vendors))
	for _, v := range report.Vendors {
		status := "ok"
		if v.Skipped {
			status = "skipped"
		}
		rows = append(rows, []string{
			v.Code,
			strconv.Itoa(v.Documents),
			strconv.Itoa(v.Findings),
			strconv.Itoa(v.Failed),
			strconv.Itoa(v.Empty),
			strconv.Itoa(v.Fallbacks),
			strconv.Itoa(v.Staged),
			status,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Vendor", "Docs", "Findings", "Failed", "Empty", "Fallback", "Staged", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))

	if report.DryRun {
		printFindings(out, report)
		fmt.Fprintf(out, "Dry run: %d findings, nothing written (%s)\n", len(report.Findings), report.Duration.Round(time.Millisecond))
		return
	}

	fmt.Fprintln(out, renderTable(
		[]string{"Outcome", "Scan", "Overrides"},
		summaryRows(report.Merge, report.Overrides),
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))
	inserted := report.Merge.Inserted() + report.Overrides.Inserted()
	skipped := report.Merge.Skipped() + report.Overrides.Skipped()
	fmt.Fprintf(out, "Run %s: %d inserted, %d skipped (%s)\n", report.RunID, inserted, skipped, report.Duration.Round(time.Millisecond))
	if report.LogPath != "" {
		fmt.Fprintf(out, "Log: %s\n", report.LogPath)
	}
}

func printFindings(out io.Writer, report runner.Report) {
	if len(report.Findings) == 0 {
		return
	}
	rows := make([][]string, 0, len(report.Findings))
	for _, f := range report.Findings {
		rows = append(rows, []string{f.Vendor, f.Flavor, f.Ingredient, f.Category})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Vendor", "Flavor", "Ingredient", "Category"},
		rows,
		nil,
	))
}

// summaryRows lists every outcome that occurred in either summary.
func summaryRows(scan, overrides merge.Summary) [][]string {
	var rows [][]string
	for _, o := range outcomeOrder {
		a, b := scan.Counts[o], overrides.Counts[o]
		if a == 0 && b == 0 && o != merge.OutcomeInserted {
			continue
		}
		rows = append(rows, []string{o.String(), strconv.Itoa(a), strconv.Itoa(b)})
	}
	return rows
}

func summaryJSON(s merge.Summary) map[string]int {
	out := map[string]int{"processed": s.Processed}
	for o, n := range s.Counts {
		out[o.String()] = n
	}
	return out
}

func reportJSON(report runner.Report) map[string]any {
	vendorsOut := make([]map[string]any, 0, len(report.Vendors))
	for _, v := range report.Vendors {
		vendorsOut = append(vendorsOut, map[string]any{
			"code":      v.Code,
			"documents": v.Documents,
			"findings":  v.Findings,
			"failed":    v.Failed,
			"empty":     v.Empty,
			"fallbacks": v.Fallbacks,
			"staged":    v.Staged,
			"skipped":   v.Skipped,
		})
	}
	findings := make([]map[string]string, 0, len(report.Findings))
	for _, f := range report.Findings {
		findings = append(findings, map[string]string{
			"vendor":     f.Vendor,
			"flavor":     f.Flavor,
			"ingredient": f.Ingredient,
			"category":   f.Category,
		})
	}
	return map[string]any{
		"run_id":      report.RunID,
		"log_path":    report.LogPath,
		"dry_run":     report.DryRun,
		"duration_ms": report.Duration.Milliseconds(),
		"vendors":     vendorsOut,
		"findings":    findings,
		"merge":       summaryJSON(report.Merge),
		"overrides":   summaryJSON(report.Overrides),
	}
}
