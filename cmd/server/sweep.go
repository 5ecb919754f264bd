package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nekogravitycat/room-reservation-engine/internal/app"
)

var sweepNames = []string{app.SweepWaitlist, app.SweepAutoCancel, app.SweepReminders, app.SweepSeries}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "sweep <name>",
		Short:     "Run one periodic job once and exit",
		Long:      fmt.Sprintf("Run one periodic job once and exit. Jobs: %s.", strings.Join(sweepNames, ", ")),
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: sweepNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			container, err := rt.container()
			if err != nil {
				return err
			}
			return container.Scheduler.RunOnce(ctx, args[0])
		},
	}
}
