package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newOwnerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Manage owners",
	}
	cmd.AddCommand(newOwnerAddCmd())
	return cmd
}

func newOwnerAddCmd() *cobra.Command {
	var (
		name      string
		email     string
		frequency int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an owner and print an access token",
		Long: `Register an owner and print its id and an access token.

The check-in window defaults to 30 days.

Example:
  legacylink owner add --name Ann --email ann@example.com --frequency 14`,
		Args:               cobra.ArbitraryArgs,
		FParseErrWhitelist: passThrough,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			owner, token, err := app.CreateOwner(cmd.Context(), name, email, frequency)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "owner: %s\ntoken: %s\n", owner.ID, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "owner name")
	cmd.Flags().StringVar(&email, "email", "", "owner email")
	cmd.Flags().IntVar(&frequency, "frequency", 0, "check-in window in days")
	return cmd
}
