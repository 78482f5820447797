package cmd

import (
	"fmt"

	"smoothies/internal/catalog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fills an empty fruit catalog with the default fruits.",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := catalog.Seed(cmd.Context(), db, catalog.DefaultFruits)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(out(cmd), "catalog already populated")
			return nil
		}
		fmt.Fprintf(out(cmd), "seeded %d fruits\n", n)
		return nil
	},
}
