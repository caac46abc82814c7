package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGroceryCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grocery",
		Short: "Work with the grocery list of the current plan",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show the grocery list grouped by aisle",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprint(cmd.OutOrStdout(), formatGroceries(a.Session.GroceryList()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "toggle <item>",
			Short: "Check or uncheck an item",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if !a.Session.ToggleGroceryItem(args[0]) {
					return fmt.Errorf("%q is not on the grocery list", args[0])
				}
				fmt.Fprint(cmd.OutOrStdout(), formatGroceries(a.Session.GroceryList()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear-checked",
			Short: "Uncheck every item",
			RunE: func(cmd *cobra.Command, args []string) error {
				a.Session.ClearChecked()
				fmt.Fprintln(cmd.OutOrStdout(), "All items unchecked.")
				return nil
			},
		},
	)

	return cmd
}
