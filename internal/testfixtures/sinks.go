package testfixtures

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/audit"
	"github.com/nekogravitycat/room-reservation-engine/internal/notification"
)

// AuditRecorder is an audit.Sink that keeps every entry.
type AuditRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *AuditRecorder) Record(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = Epoch
	}
	r.entries = append(r.entries, e)
	return nil
}

// ListForEntity mirrors the pgx repository: newest first.
func (r *AuditRecorder) ListForEntity(_ context.Context, entityType, entityID string) ([]audit.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []audit.Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if e := r.entries[i]; e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *AuditRecorder) Entries() []audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// Actions returns the recorded actions for one entity, in order.
func (r *AuditRecorder) Actions(entityID string) []audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []audit.Action
	for _, e := range r.entries {
		if e.EntityID == entityID {
			out = append(out, e.Action)
		}
	}
	return out
}

// NotificationRecorder is a notification.Sink that keeps every intent.
type NotificationRecorder struct {
	mu        sync.Mutex
	intents   []notification.Intent
	delivered map[string]bool
}

func (r *NotificationRecorder) Notify(_ context.Context, in notification.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	in.ID = newID()
	in.CreatedAt = Epoch
	r.intents = append(r.intents, in)
	return nil
}

func (r *NotificationRecorder) Intents() []notification.Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.intents)
}

// OfKind returns the intents of one kind, in order.
func (r *NotificationRecorder) OfKind(kind notification.Kind) []notification.Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification.Intent
	for _, in := range r.intents {
		if in.Kind == kind {
			out = append(out, in)
		}
	}
	return out
}

// ReminderSent matches the outbox query of notification.PgxRepository.
func (r *NotificationRecorder) ReminderSent(_ context.Context, bookingID string, beforeHours int, since time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range r.intents {
		if in.Kind != notification.KindBookingReminder || in.CreatedAt.Before(since) {
			continue
		}
		if in.Payload["booking_id"] == bookingID && in.Payload["before_hours"] == beforeHours {
			return true, nil
		}
	}
	return false, nil
}

// ListUndelivered returns up to limit intents not yet acknowledged, oldest first.
func (r *NotificationRecorder) ListUndelivered(_ context.Context, limit int) ([]notification.Intent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification.Intent
	for _, in := range r.intents {
		if len(out) == limit {
			break
		}
		if !r.delivered[in.ID] {
			out = append(out, in)
		}
	}
	return out, nil
}

func (r *NotificationRecorder) MarkDelivered(_ context.Context, ids []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.delivered == nil {
		r.delivered = make(map[string]bool)
	}
	known := make(map[string]bool, len(r.intents))
	for _, in := range r.intents {
		known[in.ID] = true
	}
	n := 0
	for _, id := range ids {
		if known[id] && !r.delivered[id] {
			r.delivered[id] = true
			n++
		}
	}
	return n, nil
}
