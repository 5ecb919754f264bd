package testfixtures

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/booking"
	"github.com/nekogravitycat/room-reservation-engine/internal/conflict"
)

// BookingRepository keeps bookings in memory. Create and Update reject
// overlapping active bookings the way the exclusion constraint does, and
// WithinResourceLock serializes callers per resource.
type BookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*booking.Booking
	seq      int

	// DeleteErr, when set, is returned by Delete in place of removing the
	// row, the way a referencing row blocks the delete in Postgres.
	DeleteErr error

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		bookings: make(map[string]*booking.Booking),
		locks:    make(map[string]*sync.Mutex),
	}
}

func cloneBooking(b *booking.Booking) *booking.Booking {
	cp := *b
	cp.SeriesID = clonePtr(b.SeriesID)
	cp.AutoCancelMinutes = clonePtr(b.AutoCancelMinutes)
	cp.CheckedInAt = clonePtr(b.CheckedInAt)
	cp.AutoCancelledAt = clonePtr(b.AutoCancelledAt)
	cp.ApprovalReason = clonePtr(b.ApprovalReason)
	cp.RejectionReason = clonePtr(b.RejectionReason)
	cp.CancellationReason = clonePtr(b.CancellationReason)
	return &cp
}

// Insert stores b directly, bypassing every check. Use it to seed history.
func (r *BookingRepository) Insert(b *booking.Booking) *booking.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stamp(b)
	r.bookings[b.ID] = cloneBooking(b)
	return b
}

// All returns every stored booking ordered by start time.
func (r *BookingRepository) All() []*booking.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(*booking.Booking) bool { return true })
}

func (r *BookingRepository) stamp(b *booking.Booking) {
	if b.ID == "" {
		b.ID = newID()
	}
	r.seq++
	if b.CreatedAt.IsZero() {
		// Strictly increasing so created_at ordering is deterministic.
		b.CreatedAt = Epoch.Add(time.Duration(r.seq) * time.Microsecond)
	}
	b.UpdatedAt = b.CreatedAt
	if b.Version == 0 {
		b.Version = 1
	}
}

func (r *BookingRepository) candidates() []conflict.Candidate {
	out := make([]conflict.Candidate, 0, len(r.bookings))
	for _, b := range r.bookings {
		out = append(out, conflict.Candidate{ID: b.ID, ResourceID: b.ResourceID, Interval: b.Interval(), Active: b.Status.IsActive()})
	}
	return out
}

func (r *BookingRepository) violatesExclusion(b *booking.Booking) bool {
	return b.Status.IsActive() && conflict.HasConflict(r.candidates(), b.ResourceID, b.Interval(), b.ID)
}

func (r *BookingRepository) Create(_ context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = ""
	if r.violatesExclusion(b) {
		return booking.ErrTimeConflict
	}
	b.Version = 0
	b.CreatedAt = time.Time{}
	r.stamp(b)
	r.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) GetByID(_ context.Context, id string) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) List(_ context.Context, f booking.Filter) ([]*booking.Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.filter(func(b *booking.Booking) bool {
		switch {
		case f.UserID != "" && b.UserID != f.UserID,
			f.ResourceID != "" && b.ResourceID != f.ResourceID,
			f.SeriesID != "" && (b.SeriesID == nil || *b.SeriesID != f.SeriesID),
			f.Status != "" && b.Status != f.Status,
			f.From != nil && !b.EndTime.After(*f.From),
			f.To != nil && !b.StartTime.Before(*f.To):
			return false
		}
		return true
	})
	if f.SortOrder == "desc" {
		slices.Reverse(out)
	}
	page, total := paginate(out, f.Page, f.PageSize)
	return page, total, nil
}

func (r *BookingRepository) Update(_ context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[b.ID]
	if !ok {
		return booking.ErrNotFound
	}
	if stored.Version != b.Version {
		return booking.ErrConcurrentUpdate
	}
	if r.violatesExclusion(b) {
		return booking.ErrTimeConflict
	}
	b.Version++
	b.UpdatedAt = b.UpdatedAt.Add(time.Microsecond)
	r.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return booking.ErrNotFound
	}
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	delete(r.bookings, id)
	return nil
}

func (r *BookingRepository) HasOverlap(_ context.Context, resourceID string, start, end time.Time, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return conflict.HasConflict(r.candidates(), resourceID, conflict.Interval{Start: start, End: end}, excludeID), nil
}

func (r *BookingRepository) CountUserActiveStartingBetween(_ context.Context, userID string, from, to time.Time, excludeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.bookings {
		if b.UserID == userID && b.ID != excludeID && b.Status.IsActive() &&
			!b.StartTime.Before(from) && b.StartTime.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *BookingRepository) CountUserActiveOverlapping(_ context.Context, userID string, start, end time.Time, excludeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	window := conflict.Interval{Start: start, End: end}
	n := 0
	for _, b := range r.bookings {
		if b.UserID == userID && b.ID != excludeID && b.Status.IsActive() && conflict.Overlaps(b.Interval(), window) {
			n++
		}
	}
	return n, nil
}

func (r *BookingRepository) ListActiveForResource(_ context.Context, resourceID string, from, to time.Time) ([]*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	window := conflict.Interval{Start: from, End: to}
	return r.filter(func(b *booking.Booking) bool {
		return b.ResourceID == resourceID && b.Status.IsActive() && conflict.Overlaps(b.Interval(), window)
	}), nil
}

func (r *BookingRepository) ListAutoCancelDue(_ context.Context, now time.Time) ([]*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(b *booking.Booking) bool { return b.AutoCancelDue(now) }), nil
}

func (r *BookingRepository) ListApprovedStartingBetween(_ context.Context, from, to time.Time) ([]*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(b *booking.Booking) bool {
		return b.Status == booking.StatusApproved && !b.StartTime.Before(from) && b.StartTime.Before(to)
	}), nil
}

func (r *BookingRepository) ListForSeries(_ context.Context, seriesID string) ([]*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(b *booking.Booking) bool { return b.SeriesID != nil && *b.SeriesID == seriesID }), nil
}

// filter must be called with mu held.
func (r *BookingRepository) filter(keep func(*booking.Booking) bool) []*booking.Booking {
	var out []*booking.Booking
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	slices.SortFunc(out, func(a, b *booking.Booking) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (r *BookingRepository) WithinResourceLock(_ context.Context, resourceID string, fn func(booking.Repository) error) error {
	r.locksMu.Lock()
	l, ok := r.locks[resourceID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[resourceID] = l
	}
	r.locksMu.Unlock()

	l.Lock()
	defer l.Unlock()
	return fn(r)
}
