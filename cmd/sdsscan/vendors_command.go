package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sdsscan/internal/vendors"
)

type vendorRow struct {
	Code        string `json:"code"`
	Strategy    string `json:"strategy"`
	Description string `json:"description"`
}

func newVendorsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "vendors",
		Short:       "List vendor codes and their name extraction rules",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var list []vendorRow
			for _, code := range vendors.Codes() {
				rule, err := vendors.RuleFor(code)
				if err != nil {
					return err
				}
				list = append(list, vendorRow{
					Code:        string(code),
					Strategy:    rule.Strategy.String(),
					Description: rule.Description(),
				})
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, list)
			}
			rows := make([][]string, 0, len(list))
			for i, v := range list {
				rows = append(rows, []string{fmt.Sprintf("%d", i+1), v.Code, v.Strategy, v.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Code", "Strategy", "Rule"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
