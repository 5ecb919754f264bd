// Package notification records notification intents. Rendering and delivery
// belong to a separate mail layer that drains the outbox.
package notification

import (
	"context"
	"time"
)

type Kind string

const (
	KindBookingCreated       Kind = "booking_created"
	KindBookingApproved      Kind = "booking_approved"
	KindBookingRejected      Kind = "booking_rejected"
	KindBookingCancelled     Kind = "booking_cancelled"
	KindBookingRescheduled   Kind = "booking_rescheduled"
	KindBookingAutoCancelled Kind = "booking_auto_cancelled"
	KindBookingReminder      Kind = "booking_reminder"
	KindWaitlistAvailable    Kind = "waitlist_available"
	KindWaitlistBooked       Kind = "waitlist_booked"
)

// Intent says that a notification should fire, to whom, and with what content.
type Intent struct {
	ID          string
	Kind        Kind
	RecipientID string
	Payload     map[string]any
	CreatedAt   time.Time
}

// Sink accepts notification intents.
type Sink interface {
	Notify(ctx context.Context, intent Intent) error
}

type nop struct{}

func (nop) Notify(context.Context, Intent) error { return nil }

// Nop returns a Sink that drops every intent.
func Nop() Sink { return nop{} }
