package reminder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/room-reservation-engine/internal/booking"
	"github.com/nekogravitycat/room-reservation-engine/internal/notification"
	"github.com/nekogravitycat/room-reservation-engine/internal/policy"
	"github.com/nekogravitycat/room-reservation-engine/internal/reminder"
	"github.com/nekogravitycat/room-reservation-engine/internal/testfixtures"
	"github.com/nekogravitycat/room-reservation-engine/internal/user"
)

type failingSink struct{}

func (failingSink) Notify(context.Context, notification.Intent) error { return errors.New("outbox down") }

func seed(e *testfixtures.Engine, status booking.Status, start time.Time) *booking.Booking {
	u := e.AddUser(user.RoleUser)
	room := e.AddRoom("Room "+start.Format("1504"), "seminar")
	return e.BookingRepo.Insert(&booking.Booking{
		UserID:     u.ID,
		ResourceID: room.ID,
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
		Purpose:    "weekly sync",
		Status:     status,
	})
}

func TestSweeper(t *testing.T) {
	t.Run("Reminds approved bookings inside the window once", func(t *testing.T) {
		e := testfixtures.NewEngine()
		now := e.Clock.Now()

		due := seed(e, booking.StatusApproved, now.Add(time.Hour+3*time.Minute))
		seed(e, booking.StatusPending, now.Add(time.Hour))                 // not approved
		seed(e, booking.StatusApproved, now.Add(time.Hour+10*time.Minute)) // outside tolerance
		seed(e, booking.StatusApproved, now.Add(30*time.Minute))           // too close

		s := reminder.NewSweeper(e.BookingRepo, e.Policy, e.Notifications, e.Notifications, e.Clock, nil)

		report, err := s.Run(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Sent)

		intents := e.Notifications.OfKind(notification.KindBookingReminder)
		require.Len(t, intents, 1)
		assert.Equal(t, due.ID, intents[0].Payload["booking_id"])
		assert.Equal(t, due.UserID, intents[0].RecipientID)

		e.Clock.Advance(2 * time.Minute)
		report, err = s.Run(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 0, report.Sent)
		assert.Equal(t, 1, report.Skipped)
		assert.Len(t, e.Notifications.OfKind(notification.KindBookingReminder), 1)
	})

	t.Run("Disabled notifications emit nothing", func(t *testing.T) {
		e := testfixtures.NewEngine()
		seed(e, booking.StatusApproved, e.Clock.Now().Add(time.Hour))
		e.Policy.Update(func(c *policy.Configuration) { c.NotificationsEnabled = false })

		s := reminder.NewSweeper(e.BookingRepo, e.Policy, e.Notifications, e.Notifications, e.Clock, nil)
		report, err := s.Run(t.Context())
		require.NoError(t, err)
		assert.Zero(t, report.Examined)
		assert.Empty(t, e.Notifications.Intents())
	})

	t.Run("Lead time follows the policy", func(t *testing.T) {
		e := testfixtures.NewEngine()
		e.Policy.Update(func(c *policy.Configuration) { c.ReminderBeforeHours = 24 })
		seed(e, booking.StatusApproved, e.Clock.Now().Add(24*time.Hour))

		s := reminder.NewSweeper(e.BookingRepo, e.Policy, e.Notifications, e.Notifications, e.Clock, nil)
		report, err := s.Run(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Sent)
	})

	t.Run("Separate runs share dedupe through the outbox", func(t *testing.T) {
		e := testfixtures.NewEngine()
		due := seed(e, booking.StatusApproved, e.Clock.Now().Add(time.Hour))

		first := reminder.NewSweeper(e.BookingRepo, e.Policy, e.Notifications, e.Notifications, e.Clock, nil)
		report, err := first.Run(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Sent)

		// A fresh sweeper starts with an empty cache, like a one-shot CLI run.
		e.Clock.Advance(2 * time.Minute)
		second := reminder.NewSweeper(e.BookingRepo, e.Policy, e.Notifications, e.Notifications, e.Clock, nil)
		report, err = second.Run(t.Context())
		require.NoError(t, err)
		assert.Zero(t, report.Sent)
		assert.Equal(t, 1, report.Skipped)

		intents := e.Notifications.OfKind(notification.KindBookingReminder)
		require.Len(t, intents, 1)
		assert.Equal(t, due.ID, intents[0].Payload["booking_id"])
	})

	t.Run("Failed intents are retried next run", func(t *testing.T) {
		e := testfixtures.NewEngine()
		seed(e, booking.StatusApproved, e.Clock.Now().Add(time.Hour))

		report, err := reminder.NewSweeper(e.BookingRepo, e.Policy, failingSink{}, nil, e.Clock, nil).Run(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Failed)
		assert.Zero(t, report.Sent)
	})
}
