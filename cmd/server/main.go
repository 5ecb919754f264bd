package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nekogravitycat/room-reservation-engine/internal/app"
	"github.com/nekogravitycat/room-reservation-engine/internal/config"
	"github.com/nekogravitycat/room-reservation-engine/internal/db"
	"github.com/nekogravitycat/room-reservation-engine/internal/logging"
)

func main() {
	root := &cobra.Command{
		Use:           "server",
		Short:         "Room reservation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newSweepCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// deps is what every subcommand needs: config, a logger and a live pool.
type deps struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
}

func (rt *deps) Close() {
	rt.pool.Close()
	_ = rt.logger.Sync()
}

func setup(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.IsProduction)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	return &deps{cfg: cfg, logger: logger, pool: pool}, nil
}

func (rt *deps) container() (*app.Container, error) {
	return app.NewContainer(app.Config{
		IsProduction:   rt.cfg.IsProduction,
		ProdOrigins:    rt.cfg.ProdOrigins,
		DBPool:         rt.pool,
		Logger:         rt.logger,
		PolicyFile:     rt.cfg.PolicyFile,
		PolicyCacheTTL: rt.cfg.PolicyCacheTTL,
		Intervals: app.Intervals{
			Waitlist:   rt.cfg.WaitlistSweepInterval,
			AutoCancel: rt.cfg.AutoCancelSweepInterval,
			Reminders:  rt.cfg.ReminderSweepInterval,
			Series:     rt.cfg.SeriesSweepInterval,
		},
		SeriesHorizon: rt.cfg.SeriesHorizon,
	})
}

// signalContext is cancelled on Ctrl+C / SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
