package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/legacylink/internal/logging"
	"github.com/dmitrijs2005/legacylink/internal/server"
	"github.com/dmitrijs2005/legacylink/internal/server/config"
	"github.com/spf13/cobra"
)

// Server flags (-d, -a, ...) are parsed by the config package from the raw
// arguments, so cobra must let them through.
var passThrough = cobra.FParseErrWhitelist{UnknownFlags: true}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:                "legacylink",
		Short:              "Conditional disclosure of an owner's digital legacy",
		Args:               cobra.ArbitraryArgs,
		FParseErrWhitelist: passThrough,
		SilenceUsage:       true,
		RunE:               runServe,
	}
	root.AddCommand(
		newServeCmd(),
		newSweepCmd(),
		newMigrateCmd(),
		newTokenCmd(),
		newOwnerCmd(),
	)
	return root
}

// newApp loads the configuration and builds the application. The caller
// closes it.
func newApp() (*server.App, logging.Logger, error) {
	cfg := config.LoadConfig()
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(os.Stderr, level, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	app, err := server.NewApp(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return app, logger, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, _, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Run(cmd.Context())
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "serve",
		Short:              "Serve gRPC and metrics and run the release sweep on schedule",
		Args:               cobra.ArbitraryArgs,
		FParseErrWhitelist: passThrough,
		RunE:               runServe,
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "migrate",
		Short:              "Create or upgrade the database schema",
		Args:               cobra.ArbitraryArgs,
		FParseErrWhitelist: passThrough,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, logger, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.Migrate(cmd.Context()); err != nil {
				return err
			}
			logger.Info(context.Background(), "Migrations complete")
			return nil
		},
	}
}
