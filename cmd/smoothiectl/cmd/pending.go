package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	pendingCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(pendingCmd)
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Prints orders that have not been filled yet.",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := svc.PendingOrders(cmd.Context())
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(out(cmd))
		t.AppendHeader(table.Row{"Order", "Name", "Ingredients", "Ordered At"})
		for _, o := range list {
			t.AppendRow(table.Row{o.OrderUID, o.NameOnOrder, o.Ingredients, o.OrderTS.Format("2006-01-02 15:04")})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

var fillCmd = &cobra.Command{
	Use:   "fill <order_uid>",
	Short: "Marks an order as filled.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := svc.MarkFilled(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "order %s for %s filled\n", o.OrderUID, o.NameOnOrder)
		return nil
	},
}
