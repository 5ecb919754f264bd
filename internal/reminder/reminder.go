// Package reminder emits booking_reminder intents ahead of approved bookings.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/nekogravitycat/room-reservation-engine/internal/booking"
	"github.com/nekogravitycat/room-reservation-engine/internal/clock"
	"github.com/nekogravitycat/room-reservation-engine/internal/logging"
	"github.com/nekogravitycat/room-reservation-engine/internal/notification"
	"github.com/nekogravitycat/room-reservation-engine/internal/policy"
)

const (
	// Tolerance is the half-width of the window around the lead time.
	Tolerance = 5 * time.Minute

	dedupeTTL  = 24 * time.Hour
	dedupeSize = 10_000
)

// Source lists approved bookings, satisfied by booking.Repository.
type Source interface {
	ListApprovedStartingBetween(ctx context.Context, from, to time.Time) ([]*booking.Booking, error)
}

// Ledger reports reminders already in the outbox, satisfied by
// notification.PgxRepository. It carries dedupe state across processes, so
// a one-shot `server sweep reminders` run does not resend what an earlier
// run emitted.
type Ledger interface {
	ReminderSent(ctx context.Context, bookingID string, beforeHours int, since time.Time) (bool, error)
}

type Report struct {
	Examined int
	Sent     int
	Skipped  int
	Failed   int
}

type Sweeper struct {
	source   Source
	policies policy.Reader
	notifier notification.Sink
	ledger   Ledger
	clock    clock.Clock
	logger   *zap.Logger
	sent     *expirable.LRU[string, struct{}]
}

// NewSweeper builds a sweeper. A nil ledger limits dedupe to this process.
func NewSweeper(source Source, policies policy.Reader, notifier notification.Sink, ledger Ledger, clk clock.Clock, logger *zap.Logger) *Sweeper {
	if clk == nil {
		clk = clock.Real()
	}
	return &Sweeper{
		source:   source,
		policies: policies,
		notifier: notifier,
		ledger:   ledger,
		clock:    clk,
		logger:   logging.OrNop(logger),
		sent:     expirable.NewLRU[string, struct{}](dedupeSize, nil, dedupeTTL),
	}
}

func dedupeKey(bookingID string, lead time.Duration) string {
	return fmt.Sprintf("%s/%s", bookingID, lead)
}

// Run emits a reminder for every approved booking starting within
// reminder_before_hours ± Tolerance. A booking is reminded at most once per
// lead time within a day, however often Run is called and by however many
// processes sharing the ledger.
func (s *Sweeper) Run(ctx context.Context) (Report, error) {
	var report Report

	cfg, err := s.policies.Current(ctx)
	if err != nil {
		return report, fmt.Errorf("load policy failed: %w", err)
	}
	if !cfg.NotificationsEnabled || cfg.ReminderBeforeHours <= 0 {
		return report, nil
	}

	lead := time.Duration(cfg.ReminderBeforeHours) * time.Hour
	now := s.clock.Now()
	target := now.Add(lead)
	due, err := s.source.ListApprovedStartingBetween(ctx, target.Add(-Tolerance), target.Add(Tolerance))
	if err != nil {
		return report, fmt.Errorf("list reminder candidates failed: %w", err)
	}

	for _, b := range due {
		report.Examined++
		key := dedupeKey(b.ID, lead)
		if s.sent.Contains(key) {
			report.Skipped++
			continue
		}
		if s.ledger != nil {
			sent, err := s.ledger.ReminderSent(ctx, b.ID, cfg.ReminderBeforeHours, now.Add(-dedupeTTL))
			if err != nil {
				report.Failed++
				s.logger.Error("check reminder ledger", zap.String("booking_id", b.ID), zap.Error(err))
				continue
			}
			if sent {
				s.sent.Add(key, struct{}{})
				report.Skipped++
				continue
			}
		}

		err := s.notifier.Notify(ctx, notification.Intent{
			Kind:        notification.KindBookingReminder,
			RecipientID: b.UserID,
			Payload: map[string]any{
				"booking_id":   b.ID,
				"resource_id":  b.ResourceID,
				"start_time":   b.StartTime,
				"end_time":     b.EndTime,
				"purpose":      b.Purpose,
				"before_hours": cfg.ReminderBeforeHours,
			},
		})
		if err != nil {
			report.Failed++
			s.logger.Error("emit reminder", zap.String("booking_id", b.ID), zap.Error(err))
			continue
		}
		s.sent.Add(key, struct{}{})
		report.Sent++
	}

	s.logger.Info("reminder sweep finished",
		zap.Int("examined", report.Examined),
		zap.Int("sent", report.Sent),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}
