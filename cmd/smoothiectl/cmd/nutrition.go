package cmd

import (
	"fmt"
	"sort"

	"smoothies/internal/workflow"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(nutritionCmd)
}

var nutritionCmd = &cobra.Command{
	Use:   "nutrition <fruit>...",
	Short: "Prints nutrition information for the given catalog fruits.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		views, err := svc.Nutrition(cmd.Context(), args)
		if err != nil {
			return err
		}
		renderNutrition(cmd, views)
		return nil
	},
}

func renderNutrition(cmd *cobra.Command, views []workflow.IngredientView) {
	for _, v := range views {
		fmt.Fprintf(out(cmd), "%s Nutrition Information\n", v.Ingredient)
		if v.Err != "" {
			fmt.Fprintf(out(cmd), "  error: %s\n\n", v.Err)
			continue
		}

		t := table.NewWriter()
		t.SetOutputMirror(out(cmd))
		t.AppendHeader(table.Row{"Nutrient", "Value"})

		if v.Nutrition.Typed() {
			keys := make([]string, 0, len(v.Nutrition.Nutrients))
			for k := range v.Nutrition.Nutrients {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				t.AppendRow(table.Row{k, v.Nutrition.Nutrients[k]})
			}
		} else {
			// 返回体形状未知，按原始 JSON 顶层字段展示
			for _, f := range v.Nutrition.RawFields() {
				t.AppendRow(table.Row{f.Key, f.Value})
			}
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		fmt.Fprintln(out(cmd))
	}
}
