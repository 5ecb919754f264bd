package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nekogravitycat/room-reservation-engine/internal/api"
	"github.com/nekogravitycat/room-reservation-engine/internal/audit"
	"github.com/nekogravitycat/room-reservation-engine/internal/booking"
	"github.com/nekogravitycat/room-reservation-engine/internal/clock"
	"github.com/nekogravitycat/room-reservation-engine/internal/equipment"
	"github.com/nekogravitycat/room-reservation-engine/internal/logging"
	"github.com/nekogravitycat/room-reservation-engine/internal/notification"
	"github.com/nekogravitycat/room-reservation-engine/internal/policy"
	"github.com/nekogravitycat/room-reservation-engine/internal/reminder"
	"github.com/nekogravitycat/room-reservation-engine/internal/resource"
	"github.com/nekogravitycat/room-reservation-engine/internal/series"
	"github.com/nekogravitycat/room-reservation-engine/internal/sweep"
	"github.com/nekogravitycat/room-reservation-engine/internal/user"
	"github.com/nekogravitycat/room-reservation-engine/internal/waitlist"
)

// Names of the periodic jobs, as accepted by `server sweep <name>`.
const (
	SweepWaitlist   = "waitlist"
	SweepAutoCancel = "auto-cancel"
	SweepReminders  = "reminders"
	SweepSeries     = "series"
)

// Intervals controls how often each periodic job runs.
type Intervals struct {
	Waitlist   time.Duration
	AutoCancel time.Duration
	Reminders  time.Duration
	Series     time.Duration
}

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction   bool
	ProdOrigins    []string
	DBPool         *pgxpool.Pool
	Logger         *zap.Logger
	PolicyFile     string
	PolicyCacheTTL time.Duration
	Intervals      Intervals
	SeriesHorizon  time.Duration
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router    *gin.Engine
	Scheduler *sweep.Scheduler
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	logger := logging.OrNop(cfg.Logger)
	clk := clock.Real()

	// Policy: defaults, then the YAML file, then admin-edited settings
	policyRepo := policy.NewPgxRepository(cfg.DBPool)
	policies := policy.NewCachedReader(
		policy.Layered(policy.FileSource{Path: cfg.PolicyFile}, policyRepo),
		cfg.PolicyCacheTTL,
	)

	// Side channels
	auditRepo := audit.NewPgxRepository(cfg.DBPool)
	auditSink := audit.Multi(auditRepo, audit.NewLogSink(logger))
	notifier := notification.NewPgxRepository(cfg.DBPool)

	// User and Resource modules
	userService := user.NewService(user.NewPgxRepository(cfg.DBPool))
	resService := resource.NewService(resource.NewPgxRepository(cfg.DBPool))

	// Equipment module
	equipmentService := equipment.NewService(equipment.NewPgxRepository(cfg.DBPool), clk, logger)

	// Booking module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(booking.Dependencies{
		Repo:          bookingRepo,
		Users:         userService,
		Resources:     resService,
		Equipment:     equipmentService,
		Policies:      policies,
		Audit:         auditSink,
		Notifications: notifier,
		Clock:         clk,
		Logger:        logger,
	})

	// Series module
	seriesService := series.NewService(series.Dependencies{
		Repo:      series.NewPgxRepository(cfg.DBPool),
		Bookings:  bookingService,
		Users:     userService,
		Resources: resService,
		Policies:  policies,
		Clock:     clk,
		Logger:    logger,
	})

	// Waitlist module
	waitlistService := waitlist.NewService(waitlist.Dependencies{
		Repo:          waitlist.NewPgxRepository(cfg.DBPool),
		Bookings:      bookingService,
		Users:         userService,
		Resources:     resService,
		Policies:      policies,
		Notifications: notifier,
		Clock:         clk,
		Logger:        logger,
	})

	reminders := reminder.NewSweeper(bookingRepo, policies, notifier, notifier, clk, logger)

	// Periodic jobs
	scheduler := sweep.New(logger)
	tasks := []struct {
		name     string
		interval time.Duration
		fn       sweep.Func
	}{
		{SweepWaitlist, cfg.Intervals.Waitlist, func(ctx context.Context) error {
			_, err := waitlistService.Reconcile(ctx)
			return err
		}},
		{SweepAutoCancel, cfg.Intervals.AutoCancel, func(ctx context.Context) error {
			_, err := bookingService.RunAutoCancelSweep(ctx)
			return err
		}},
		{SweepReminders, cfg.Intervals.Reminders, func(ctx context.Context) error {
			_, err := reminders.Run(ctx)
			return err
		}},
		{SweepSeries, cfg.Intervals.Series, func(ctx context.Context) error {
			_, err := seriesService.ExtendActive(ctx, cfg.SeriesHorizon)
			return err
		}},
	}
	for _, task := range tasks {
		if err := scheduler.Register(task.name, task.interval, task.fn); err != nil {
			return nil, err
		}
	}

	// API Router Config
	routerParams := api.Config{
		IsProduction:     cfg.IsProduction,
		ProdOrigins:      cfg.ProdOrigins,
		Logger:           logger,
		UserService:      userService,
		ResourceService:  resService,
		BookingService:   bookingService,
		EquipmentService: equipmentService,
		SeriesService:    seriesService,
		WaitlistService:  waitlistService,
		PolicyReader:     policies,
		PolicyStore:      policyRepo,
		AuditHistory:     auditRepo,
		Outbox:           notifier,
	}

	return &Container{
		Router:    api.NewRouter(routerParams),
		Scheduler: scheduler,
	}, nil
}
