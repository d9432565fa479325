package main

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/legacylink/internal/server/auth"
	"github.com/dmitrijs2005/legacylink/internal/server/config"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var ownerID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an owner access token",
		Long: `Mint an owner access token signed with the configured secret.

The token is printed to stdout. Send it in the access_token metadata of
owner calls.

Example:
  legacylink token --owner 3f6c1c9e-...`,
		Args:               cobra.ArbitraryArgs,
		FParseErrWhitelist: passThrough,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ownerID == "" {
				return errors.New("--owner is required")
			}
			cfg := config.LoadConfig()
			token, err := auth.GenerateToken(ownerID, []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id")
	return cmd
}
