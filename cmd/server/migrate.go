package main

import (
	"github.com/spf13/cobra"

	"github.com/nekogravitycat/room-reservation-engine/internal/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			return db.Migrate(ctx, rt.pool, rt.logger)
		},
	}
}
