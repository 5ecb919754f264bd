package testfixtures

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/waitlist"
)

type WaitlistRepository struct {
	mu      sync.Mutex
	entries map[string]*waitlist.Entry
	order   []string
}

func NewWaitlistRepository() *WaitlistRepository {
	return &WaitlistRepository{entries: make(map[string]*waitlist.Entry)}
}

func cloneEntry(e *waitlist.Entry) *waitlist.Entry {
	cp := *e
	cp.BookingID = clonePtr(e.BookingID)
	cp.NotifiedAt = clonePtr(e.NotifiedAt)
	return &cp
}

func (r *WaitlistRepository) Create(_ context.Context, e *waitlist.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = newID()
	e.CreatedAt = Epoch
	e.UpdatedAt = Epoch
	r.entries[e.ID] = cloneEntry(e)
	r.order = append(r.order, e.ID)
	return nil
}

func (r *WaitlistRepository) GetByID(_ context.Context, id string) (*waitlist.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, waitlist.ErrNotFound
	}
	return cloneEntry(e), nil
}

func (r *WaitlistRepository) List(_ context.Context, f waitlist.Filter) ([]*waitlist.Entry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*waitlist.Entry
	for _, id := range slices.Backward(r.order) {
		e := r.entries[id]
		switch {
		case f.UserID != "" && e.UserID != f.UserID,
			f.ResourceID != "" && e.ResourceID != f.ResourceID,
			f.Status != "" && e.Status != f.Status:
			continue
		}
		out = append(out, cloneEntry(e))
	}
	page, total := paginate(out, f.Page, f.PageSize)
	return page, total, nil
}

func (r *WaitlistRepository) ListWaiting(_ context.Context, now time.Time) ([]*waitlist.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*waitlist.Entry
	for _, id := range r.order {
		if e := r.entries[id]; e.Status == waitlist.StatusWaiting && e.StartTime.After(now) {
			out = append(out, cloneEntry(e))
		}
	}
	return out, nil
}

func (r *WaitlistRepository) Transition(_ context.Context, id string, t waitlist.Transition) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.Status != t.From {
		return false, nil
	}
	e.Status = t.To
	if t.BookingID != nil {
		e.BookingID = clonePtr(t.BookingID)
	}
	if t.NotifiedAt != nil {
		e.NotifiedAt = clonePtr(t.NotifiedAt)
	}
	return true, nil
}
