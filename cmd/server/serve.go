package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nekogravitycat/room-reservation-engine/internal/db"
)

func newServeCmd() *cobra.Command {
	var noSweeps bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic sweeps",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.cfg.MigrateOnStart {
				if err := db.Migrate(ctx, rt.pool, rt.logger); err != nil {
					return err
				}
			}

			container, err := rt.container()
			if err != nil {
				return err
			}

			if !noSweeps {
				container.Scheduler.Start(ctx)
				defer container.Scheduler.Stop()
			}

			// Use http.Server for graceful shutdown
			server := &http.Server{
				Addr:              rt.cfg.HTTPAddr,
				Handler:           container.Router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				rt.logger.Info("server running", zap.String("addr", rt.cfg.HTTPAddr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case <-ctx.Done():
				rt.logger.Info("shutdown signal received")
			case err := <-serveErr:
				if err != nil {
					return err
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				rt.logger.Warn("server forced to shutdown", zap.Error(err))
			}

			rt.logger.Info("server exited gracefully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&noSweeps, "no-sweeps", false, "serve HTTP only; run sweeps from another process")
	return cmd
}
