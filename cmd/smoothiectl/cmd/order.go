package cmd

import (
	"errors"
	"fmt"

	"smoothies/internal/order"
	"smoothies/internal/workflow"

	"github.com/spf13/cobra"
)

var (
	orderName   string
	orderFruits []string
	orderShow   bool
)

func init() {
	orderCmd.Flags().StringVarP(&orderName, "name", "n", "", "name on the smoothie")
	orderCmd.Flags().StringArrayVarP(&orderFruits, "fruit", "f", nil, "ingredient to add (repeatable, up to 5 advised)")
	orderCmd.Flags().BoolVar(&orderShow, "nutrition", false, "print nutrition information before submitting")
	rootCmd.AddCommand(orderCmd)
}

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Places a smoothie order.",
	RunE: func(cmd *cobra.Command, args []string) error {
		form := workflow.Form{Name: orderName, Ingredients: orderFruits}

		var (
			page workflow.Page
			err  error
		)
		if orderShow {
			page, err = svc.Submit(cmd.Context(), form)
			if err != nil {
				return err
			}
			renderNutrition(cmd, page.Nutrition)
		} else {
			page, err = submitOnly(cmd, form)
			if err != nil {
				return err
			}
		}

		for _, w := range page.Warnings {
			fmt.Fprintln(out(cmd), "warning:", w)
		}
		if page.State != workflow.OrderConfirmed {
			return errors.New(page.Error)
		}
		fmt.Fprintf(out(cmd), "%s (order %s: %s)\n", page.Confirmation, page.Order.OrderUID, page.Order.Ingredients)
		return nil
	},
}

// submitOnly 不查询营养数据，直接下单。
func submitOnly(cmd *cobra.Command, form workflow.Form) (workflow.Page, error) {
	page := workflow.Page{State: workflow.Submitting}
	if w := order.CapWarning(order.Normalize(form.Ingredients)); w != "" {
		page.Warnings = append(page.Warnings, w)
	}
	o, err := svc.Place(cmd.Context(), form)
	if err != nil {
		page.State = workflow.SubmitFailed
		page.Error = err.Error()
		return page, nil
	}
	page.State = workflow.OrderConfirmed
	page.Order = &o
	page.Confirmation = fmt.Sprintf("Your Smoothie is ordered, %s!", o.NameOnOrder)
	return page, nil
}
