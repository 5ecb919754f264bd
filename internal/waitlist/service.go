package waitlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/room-reservation-engine/internal/booking"
	"github.com/nekogravitycat/room-reservation-engine/internal/clock"
	"github.com/nekogravitycat/room-reservation-engine/internal/logging"
	"github.com/nekogravitycat/room-reservation-engine/internal/notification"
	"github.com/nekogravitycat/room-reservation-engine/internal/policy"
	"github.com/nekogravitycat/room-reservation-engine/internal/resource"
	"github.com/nekogravitycat/room-reservation-engine/internal/user"
)

type SubmitRequest struct {
	UserID     string
	ResourceID string
	StartTime  time.Time
	EndTime    time.Time
	Purpose    string
	AutoBook   bool
}

// SubmitResult holds exactly one of Booking (the interval was free) or
// Entry (it was taken and the request now waits).
type SubmitResult struct {
	Booking *booking.Booking
	Entry   *Entry
}

// Report is the outcome of one reconciliation run.
type Report struct {
	Examined     int
	Booked       int
	Notified     int
	StillBlocked int
	Failed       int
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
	GetByID(ctx context.Context, actorID, id string) (*Entry, error)
	List(ctx context.Context, actorID string, filter Filter) ([]*Entry, int, error)
	Withdraw(ctx context.Context, actorID, id string) (*Entry, error)
	// Claim turns an open entry into a booking when its interval is free.
	Claim(ctx context.Context, actorID, id string) (*booking.Booking, error)
	Reconcile(ctx context.Context) (Report, error)
}

type Dependencies struct {
	Repo          Repository
	Bookings      booking.Service
	Users         user.Service
	Resources     resource.Service
	Policies      policy.Reader
	Notifications notification.Sink
	Clock         clock.Clock
	Logger        *zap.Logger
}

type service struct {
	repo      Repository
	bookings  booking.Service
	users     user.Service
	resources resource.Service
	policies  policy.Reader
	notifier  notification.Sink
	clock     clock.Clock
	logger    *zap.Logger
}

func NewService(deps Dependencies) Service {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Notifications == nil {
		deps.Notifications = notification.Nop()
	}
	return &service{
		repo:      deps.Repo,
		bookings:  deps.Bookings,
		users:     deps.Users,
		resources: deps.Resources,
		policies:  deps.Policies,
		notifier:  deps.Notifications,
		clock:     deps.Clock,
		logger:    logging.OrNop(deps.Logger),
	}
}

func (s *service) actor(ctx context.Context, id string) (*user.User, error) {
	u, err := s.users.GetActive(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) || errors.Is(err, user.ErrInactive) {
			return nil, ErrPermissionDenied
		}
		return nil, err
	}
	return u, nil
}

func (s *service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidTimeRange
	}
	if !req.StartTime.After(s.clock.Now()) {
		return nil, ErrStartTimePast
	}
	if strings.TrimSpace(req.Purpose) == "" {
		return nil, ErrPurposeRequired
	}
	requester, err := s.actor(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	room, err := s.resources.GetBookable(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}

	free, err := s.bookings.IsAvailable(ctx, room.ID, req.StartTime, req.EndTime, "")
	if err != nil {
		return nil, err
	}
	if free {
		b, err := s.bookings.Create(ctx, s.bookingRequest(requester.ID, room.ID, req.StartTime, req.EndTime, req.Purpose))
		if err == nil {
			return &SubmitResult{Booking: b}, nil
		}
		// Lost the slot between the check and the insert: wait for it instead.
		if !errors.Is(err, booking.ErrTimeConflict) {
			return nil, err
		}
	}

	e := &Entry{
		UserID:     requester.ID,
		ResourceID: room.ID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Purpose:    strings.TrimSpace(req.Purpose),
		AutoBook:   req.AutoBook,
		Status:     StatusWaiting,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("waitlist entry created", zap.String("entry_id", e.ID), zap.String("resource_id", e.ResourceID))
	return &SubmitResult{Entry: e}, nil
}

func (s *service) bookingRequest(userID, resourceID string, start, end time.Time, purpose string) booking.CreateRequest {
	return booking.CreateRequest{
		UserID:     userID,
		ResourceID: resourceID,
		StartTime:  start,
		EndTime:    end,
		Purpose:    purpose,
	}
}

func (s *service) owned(ctx context.Context, actorID, id string) (*Entry, error) {
	u, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() && e.UserID != u.ID {
		return nil, ErrPermissionDenied
	}
	return e, nil
}

func (s *service) GetByID(ctx context.Context, actorID, id string) (*Entry, error) {
	return s.owned(ctx, actorID, id)
}

func (s *service) List(ctx context.Context, actorID string, filter Filter) ([]*Entry, int, error) {
	u, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	if !u.IsAdmin() {
		filter.UserID = u.ID
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Withdraw(ctx context.Context, actorID, id string) (*Entry, error) {
	e, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !e.Status.CanTransitionTo(StatusCancelled) {
		return nil, ErrInvalidStatus
	}
	ok, err := s.repo.Transition(ctx, e.ID, Transition{From: e.Status, To: StatusCancelled})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidStatus
	}
	e.Status = StatusCancelled
	return e, nil
}

func (s *service) Claim(ctx context.Context, actorID, id string) (*booking.Booking, error) {
	e, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !e.Status.Open() {
		return nil, ErrInvalidStatus
	}

	b, err := s.bookings.Create(ctx, s.bookingRequest(e.UserID, e.ResourceID, e.StartTime, e.EndTime, e.Purpose))
	if err != nil {
		if errors.Is(err, booking.ErrTimeConflict) {
			return nil, ErrStillBlocked
		}
		return nil, err
	}

	if err := s.markBooked(ctx, e, b); err != nil {
		return nil, err
	}
	return b, nil
}

// markBooked links b to e. When e left its status concurrently the booking
// is cancelled again so the entry never yields two reservations.
func (s *service) markBooked(ctx context.Context, e *Entry, b *booking.Booking) error {
	ok, err := s.repo.Transition(ctx, e.ID, Transition{From: e.Status, To: StatusBooked, BookingID: &b.ID})
	if err == nil && ok {
		e.Status = StatusBooked
		e.BookingID = &b.ID
		return nil
	}
	if _, cerr := s.bookings.Cancel(ctx, e.UserID, b.ID, "waitlist entry no longer open"); cerr != nil {
		s.logger.Error("cancel orphaned waitlist booking", zap.String("entry_id", e.ID), zap.String("booking_id", b.ID), zap.Error(cerr))
	}
	if err != nil {
		return err
	}
	return ErrInvalidStatus
}

func (s *service) Reconcile(ctx context.Context) (Report, error) {
	var report Report
	now := s.clock.Now()
	entries, err := s.repo.ListWaiting(ctx, now)
	if err != nil {
		return report, err
	}
	cfg, err := s.policies.Current(ctx)
	if err != nil {
		return report, fmt.Errorf("load policy failed: %w", err)
	}

	for _, e := range entries {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Examined++

		free, err := s.bookings.IsAvailable(ctx, e.ResourceID, e.StartTime, e.EndTime, "")
		if err != nil {
			report.Failed++
			s.logger.Error("check waitlist availability", zap.String("entry_id", e.ID), zap.Error(err))
			continue
		}
		if !free {
			report.StillBlocked++
			continue
		}

		if e.AutoBook {
			s.autoBook(ctx, cfg, e, &report)
			continue
		}

		ok, err := s.repo.Transition(ctx, e.ID, Transition{From: StatusWaiting, To: StatusNotified, NotifiedAt: &now})
		switch {
		case err != nil:
			report.Failed++
			s.logger.Error("mark waitlist entry notified", zap.String("entry_id", e.ID), zap.Error(err))
		case ok:
			e.Status = StatusNotified
			e.NotifiedAt = &now
			report.Notified++
			s.notify(ctx, cfg, notification.KindWaitlistAvailable, e)
		}
	}

	s.logger.Info("waitlist reconcile finished",
		zap.Int("examined", report.Examined),
		zap.Int("booked", report.Booked),
		zap.Int("notified", report.Notified),
		zap.Int("still_blocked", report.StillBlocked),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *service) autoBook(ctx context.Context, cfg policy.Configuration, e *Entry, report *Report) {
	b, err := s.bookings.Create(ctx, s.bookingRequest(e.UserID, e.ResourceID, e.StartTime, e.EndTime, e.Purpose))
	if err != nil {
		if errors.Is(err, booking.ErrTimeConflict) {
			report.StillBlocked++
			return
		}
		report.Failed++
		s.logger.Error("auto-book waitlist entry", zap.String("entry_id", e.ID), zap.Error(err))
		return
	}
	if err := s.markBooked(ctx, e, b); err != nil {
		if !errors.Is(err, ErrInvalidStatus) {
			report.Failed++
			s.logger.Error("mark waitlist entry booked", zap.String("entry_id", e.ID), zap.Error(err))
		}
		return
	}
	report.Booked++
	s.notify(ctx, cfg, notification.KindWaitlistBooked, e)
}

func (s *service) notify(ctx context.Context, cfg policy.Configuration, kind notification.Kind, e *Entry) {
	if !cfg.Notifies(kind) {
		return
	}
	payload := map[string]any{
		"entry_id":    e.ID,
		"resource_id": e.ResourceID,
		"start_time":  e.StartTime,
		"end_time":    e.EndTime,
	}
	if e.BookingID != nil {
		payload["booking_id"] = *e.BookingID
	}
	if err := s.notifier.Notify(ctx, notification.Intent{Kind: kind, RecipientID: e.UserID, Payload: payload}); err != nil {
		s.logger.Error("emit notification intent", zap.String("entry_id", e.ID), zap.String("kind", string(kind)), zap.Error(err))
	}
}
