package main

import (
	"fmt"
	"io"

	"github.com/dmitrijs2005/legacylink/internal/server/services"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one release sweep and print its report",
		Long: `Run one release sweep over all owners and print its report.

Owners whose unit fails are listed and the command exits non-zero; the
other owners are still processed.`,
		Args:               cobra.ArbitraryArgs,
		FParseErrWhitelist: passThrough,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.SweepOnce(cmd.Context())
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return report.Err()
		},
	}
}

func printReport(w io.Writer, r *services.SweepReport) {
	fmt.Fprintf(w, "started:          %s\n", r.StartedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(w, "duration:         %s\n", r.Duration)
	fmt.Fprintf(w, "owners:           %d\n", r.Owners)
	fmt.Fprintf(w, "processed:        %d\n", r.Processed)
	fmt.Fprintf(w, "skipped:          %d\n", r.Skipped)
	fmt.Fprintf(w, "notified:         %d\n", r.Notified)
	fmt.Fprintf(w, "notify failures:  %d\n", r.NotifyFailures)
	fmt.Fprintf(w, "grants released:  %d\n", r.GrantsReleased)
	for _, f := range r.Failures {
		fmt.Fprintf(w, "failed owner %s: %v\n", f.OwnerID, f.Err)
	}
}
