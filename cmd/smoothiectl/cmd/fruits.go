package cmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(fruitsCmd)
}

var fruitsCmd = &cobra.Command{
	Use:   "fruits",
	Short: "Prints the fruit catalog.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := svc.Catalog(cmd.Context())
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(out(cmd))
		t.AppendHeader(table.Row{"Fruit", "Search On"})
		for _, it := range cat.Items() {
			t.AppendRow(table.Row{it.Name, it.LookupKey})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
