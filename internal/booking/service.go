package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/room-reservation-engine/internal/audit"
	"github.com/nekogravitycat/room-reservation-engine/internal/clock"
	"github.com/nekogravitycat/room-reservation-engine/internal/equipment"
	"github.com/nekogravitycat/room-reservation-engine/internal/logging"
	"github.com/nekogravitycat/room-reservation-engine/internal/notification"
	"github.com/nekogravitycat/room-reservation-engine/internal/policy"
	"github.com/nekogravitycat/room-reservation-engine/internal/resource"
	"github.com/nekogravitycat/room-reservation-engine/internal/user"
)

const entityType = "booking"

type EquipmentRequest struct {
	ItemID   string
	Quantity int
}

type CreateRequest struct {
	UserID            string
	ResourceID        string
	SeriesID          *string
	StartTime         time.Time
	EndTime           time.Time
	Purpose           string
	Notes             string
	RequiresCheckin   bool
	AutoCancelMinutes *int
	Equipment         []EquipmentRequest
}

type RescheduleRequest struct {
	ResourceID *string // nil keeps the current room
	StartTime  time.Time
	EndTime    time.Time
}

// BulkResult is the outcome of one item of a bulk operation.
type BulkResult struct {
	ID      string
	Booking *Booking
	Err     error
}

// SweepReport summarizes one auto-cancellation run.
type SweepReport struct {
	Examined  int
	Cancelled int
	Skipped   int
	Failed    int
}

type Service interface {
	// Create is the only path that inserts a reservation.
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, actorID, id string) (*Booking, error)
	List(ctx context.Context, actorID string, filter Filter) ([]*Booking, int, error)

	Approve(ctx context.Context, actorID, id, reason string) (*Booking, error)
	Reject(ctx context.Context, actorID, id, reason string) (*Booking, error)
	Cancel(ctx context.Context, actorID, id, reason string) (*Booking, error)
	Reschedule(ctx context.Context, actorID, id string, req RescheduleRequest) (*Booking, error)
	CheckIn(ctx context.Context, actorID, id string) (*Booking, error)
	// AutoCancel is system-triggered. It returns false without error when the
	// booking is no longer eligible.
	AutoCancel(ctx context.Context, id string) (bool, error)
	RunAutoCancelSweep(ctx context.Context) (SweepReport, error)

	BulkApprove(ctx context.Context, actorID string, ids []string, reason string) []BulkResult
	BulkReject(ctx context.Context, actorID string, ids []string, reason string) []BulkResult
	BulkCancel(ctx context.Context, actorID string, ids []string, reason string) []BulkResult
	// Purge physically deletes a booking. Admin only.
	Purge(ctx context.Context, actorID, id string) error

	ListEquipment(ctx context.Context, actorID, bookingID string) ([]*equipment.Line, error)
	AttachEquipment(ctx context.Context, actorID, bookingID string, req EquipmentRequest) (*equipment.Line, error)
	ChangeEquipmentQuantity(ctx context.Context, actorID, bookingID, lineID string, qty int) (*equipment.Line, error)
	DetachEquipment(ctx context.Context, actorID, bookingID, lineID string) error
	ApproveEquipment(ctx context.Context, actorID, bookingID, lineID string) (*equipment.Line, error)
	RejectEquipment(ctx context.Context, actorID, bookingID, lineID string) (*equipment.Line, error)

	// IsAvailable runs the conflict check against persisted state.
	IsAvailable(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (bool, error)
	ActiveForResource(ctx context.Context, resourceID string, from, to time.Time) ([]*Booking, error)
	ListForSeries(ctx context.Context, seriesID string) ([]*Booking, error)
}

// Dependencies are the collaborators of the booking service.
type Dependencies struct {
	Repo          Repository
	Users         user.Service
	Resources     resource.Service
	Equipment     equipment.Service
	Policies      policy.Reader
	Audit         audit.Sink
	Notifications notification.Sink
	Clock         clock.Clock
	Logger        *zap.Logger
}

type service struct {
	repo      Repository
	users     user.Service
	resources resource.Service
	equipment equipment.Service
	policies  policy.Reader
	audit     audit.Sink
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
		users:     deps.Users,
		resources: deps.Resources,
		equipment: deps.Equipment,
		policies:  deps.Policies,
		audit:     deps.Audit,
		notifier:  deps.Notifications,
		clock:     deps.Clock,
		logger:    logging.OrNop(deps.Logger),
	}
}

// actor resolves the caller. Unknown or inactive callers are unauthorized.
func (s *service) actor(ctx context.Context, actorID string) (*user.User, error) {
	u, err := s.users.GetActive(ctx, actorID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) || errors.Is(err, user.ErrInactive) {
			return nil, ErrPermissionDenied
		}
		return nil, err
	}
	return u, nil
}

func (s *service) admin(ctx context.Context, actorID string) (*user.User, error) {
	u, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	return u, nil
}

// owned loads the booking and checks the caller is its owner or an admin.
func (s *service) owned(ctx context.Context, actorID, id string) (*user.User, *Booking, error) {
	u, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !u.IsAdmin() && b.UserID != u.ID {
		return nil, nil, ErrPermissionDenied
	}
	return u, b, nil
}

func validateInterval(start, end, now time.Time) error {
	if !end.After(start) {
		return ErrInvalidTimeRange
	}
	if !start.After(now) {
		return ErrStartTimePast
	}
	return nil
}

func validateCreate(req CreateRequest, now time.Time) error {
	if err := validateInterval(req.StartTime, req.EndTime, now); err != nil {
		return err
	}
	if strings.TrimSpace(req.Purpose) == "" {
		return ErrPurposeRequired
	}
	if req.AutoCancelMinutes != nil {
		if !req.RequiresCheckin {
			return ErrAutoCancelNeedsCheckin
		}
		if m := *req.AutoCancelMinutes; m < MinAutoCancelMinutes || m > MaxAutoCancelMinutes {
			return ErrInvalidAutoCancel
		}
	}
	for _, eq := range req.Equipment {
		if eq.ItemID == "" || eq.Quantity <= 0 {
			return ErrInvalidInput
		}
	}
	return nil
}

// checkPolicy counts the requester's usage through repo, which must be the
// locked repository when called from a write path.
func (s *service) checkPolicy(ctx context.Context, repo Repository, cfg policy.Configuration, requester *user.User, room *resource.Resource, start, end time.Time, excludeID string) error {
	var usage policy.Usage
	if cfg.NeedsUsage(requester.Role) {
		wf, wt, mf, mt := cfg.UsageWindows(start)
		var err error
		if usage.Weekly, err = repo.CountUserActiveStartingBetween(ctx, requester.ID, wf, wt, excludeID); err != nil {
			return err
		}
		if usage.Monthly, err = repo.CountUserActiveStartingBetween(ctx, requester.ID, mf, mt, excludeID); err != nil {
			return err
		}
		if usage.Concurrent, err = repo.CountUserActiveOverlapping(ctx, requester.ID, start, end, excludeID); err != nil {
			return err
		}
	}

	result := policy.Validate(cfg, policy.Input{
		Requester: policy.Requester{ID: requester.ID, Role: requester.Role},
		Room:      policy.Room{ID: room.ID, Category: room.Category},
		Start:     start,
		End:       end,
		Now:       s.clock.Now(),
		Usage:     usage,
	})
	if !result.OK() {
		return ErrPolicyViolation.WithReasons(result.Messages()...)
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	now := s.clock.Now()
	if err := validateCreate(req, now); err != nil {
		return nil, err
	}

	requester, err := s.actor(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	room, err := s.resources.GetBookable(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.policies.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("load policy failed: %w", err)
	}

	for _, eq := range req.Equipment {
		if err := s.equipment.CheckAvailable(ctx, eq.ItemID, eq.Quantity); err != nil {
			return nil, err
		}
	}

	b := &Booking{
		ResourceID:        room.ID,
		UserID:            requester.ID,
		SeriesID:          req.SeriesID,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Purpose:           strings.TrimSpace(req.Purpose),
		Notes:             req.Notes,
		Status:            StatusPending,
		RequiresCheckin:   req.RequiresCheckin,
		AutoCancelMinutes: req.AutoCancelMinutes,
	}
	if requester.IsAdmin() {
		b.Status = StatusApproved
		reason := "auto-approved for administrator"
		b.ApprovalReason = &reason
	}

	err = s.repo.WithinResourceLock(ctx, room.ID, func(tx Repository) error {
		if err := s.checkPolicy(ctx, tx, cfg, requester, room, b.StartTime, b.EndTime, ""); err != nil {
			return err
		}
		overlap, err := tx.HasOverlap(ctx, room.ID, b.StartTime, b.EndTime, "")
		if err != nil {
			return err
		}
		if overlap {
			return ErrTimeConflict
		}
		return tx.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	for _, eq := range req.Equipment {
		if _, err := s.equipment.Attach(ctx, b.ID, eq.ItemID, eq.Quantity, b.Status == StatusApproved); err != nil {
			s.compensate(ctx, b, err)
			return nil, err
		}
	}

	s.record(ctx, audit.ActionCreate, b.ID, requester.ID, nil, b, "booking created")
	s.notify(ctx, cfg, notification.KindBookingCreated, b, "")
	return b, nil
}

// compensate cancels a freshly created booking whose equipment could not be attached.
func (s *service) compensate(ctx context.Context, b *Booking, cause error) {
	if err := s.equipment.ReleaseForBooking(ctx, b.ID); err != nil {
		s.logger.Error("release equipment after failed attach", zap.String("booking_id", b.ID), zap.Error(err))
	}
	reason := "equipment unavailable: " + cause.Error()
	b.Status = StatusCancelled
	b.CancellationReason = &reason
	if err := s.repo.Update(ctx, b); err != nil {
		s.logger.Error("cancel booking after failed attach", zap.String("booking_id", b.ID), zap.Error(err))
		return
	}
	s.record(ctx, audit.ActionCancel, b.ID, b.UserID, nil, b, reason)
}

func (s *service) GetByID(ctx context.Context, actorID, id string) (*Booking, error) {
	_, b, err := s.owned(ctx, actorID, id)
	return b, err
}

func (s *service) List(ctx context.Context, actorID string, filter Filter) ([]*Booking, int, error) {
	u, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, ErrInvalidInput
	}
	// Non-admins only ever see their own bookings.
	if !u.IsAdmin() {
		filter.UserID = u.ID
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Approve(ctx context.Context, actorID, id, reason string) (*Booking, error) {
	admin, err := s.admin(ctx, actorID)
	if err != nil {
		return nil, err
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusPending || !b.Status.CanTransitionTo(StatusApproved) {
		return nil, ErrInvalidStatus
	}

	before := b.snapshot()
	b.Status = StatusApproved
	if r := strings.TrimSpace(reason); r != "" {
		b.ApprovalReason = &r
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	if _, err := s.equipment.ApproveForBooking(ctx, b.ID); err != nil {
		s.logger.Error("approve equipment for booking", zap.String("booking_id", b.ID), zap.Error(err))
	}

	s.record(ctx, audit.ActionApprove, b.ID, admin.ID, before, b, reason)
	s.notifyCurrent(ctx, notification.KindBookingApproved, b, reason)
	return b, nil
}

func (s *service) Reject(ctx context.Context, actorID, id, reason string) (*Booking, error) {
	admin, err := s.admin(ctx, actorID)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusPending || !b.Status.CanTransitionTo(StatusRejected) {
		return nil, ErrInvalidStatus
	}

	before := b.snapshot()
	b.Status = StatusRejected
	b.RejectionReason = &reason
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.record(ctx, audit.ActionReject, b.ID, admin.ID, before, b, reason)
	s.notifyCurrent(ctx, notification.KindBookingRejected, b, reason)
	return b, nil
}

func (s *service) Cancel(ctx context.Context, actorID, id, reason string) (*Booking, error) {
	u, b, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanTransitionTo(StatusCancelled) {
		return nil, ErrInvalidStatus
	}
	if !b.EndTime.After(s.clock.Now()) {
		return nil, ErrAlreadyEnded
	}

	before := b.snapshot()
	b.Status = StatusCancelled
	if r := strings.TrimSpace(reason); r != "" {
		b.CancellationReason = &r
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	if err := s.equipment.ReleaseForBooking(ctx, b.ID); err != nil {
		s.logger.Error("release equipment for cancelled booking", zap.String("booking_id", b.ID), zap.Error(err))
	}

	s.record(ctx, audit.ActionCancel, b.ID, u.ID, before, b, reason)
	s.notifyCurrent(ctx, notification.KindBookingCancelled, b, reason)
	return b, nil
}

func (s *service) Reschedule(ctx context.Context, actorID, id string, req RescheduleRequest) (*Booking, error) {
	u, b, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !b.Status.IsActive() {
		return nil, ErrInvalidStatus
	}
	if !b.StartTime.After(now) {
		return nil, ErrAlreadyStarted
	}
	if err := validateInterval(req.StartTime, req.EndTime, now); err != nil {
		return nil, err
	}

	roomID := b.ResourceID
	if req.ResourceID != nil && *req.ResourceID != "" {
		roomID = *req.ResourceID
	}
	room, err := s.resources.GetBookable(ctx, roomID)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.GetByID(ctx, b.UserID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.policies.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("load policy failed: %w", err)
	}

	before := b.snapshot()
	wasPending := b.Status == StatusPending
	err = s.repo.WithinResourceLock(ctx, room.ID, func(tx Repository) error {
		if err := s.checkPolicy(ctx, tx, cfg, owner, room, req.StartTime, req.EndTime, b.ID); err != nil {
			return err
		}
		overlap, err := tx.HasOverlap(ctx, room.ID, req.StartTime, req.EndTime, b.ID)
		if err != nil {
			return err
		}
		if overlap {
			return ErrTimeConflict
		}

		b.ResourceID = room.ID
		b.StartTime = req.StartTime
		b.EndTime = req.EndTime
		// A reschedule is an implicit re-approval.
		b.Status = StatusApproved
		return tx.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	if wasPending {
		if _, err := s.equipment.ApproveForBooking(ctx, b.ID); err != nil {
			s.logger.Error("approve equipment for rescheduled booking", zap.String("booking_id", b.ID), zap.Error(err))
		}
	}

	s.record(ctx, audit.ActionReschedule, b.ID, u.ID, before, b, "booking rescheduled")
	s.notify(ctx, cfg, notification.KindBookingRescheduled, b, "")
	return b, nil
}

func (s *service) CheckIn(ctx context.Context, actorID, id string) (*Booking, error) {
	u, b, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	switch {
	case !b.RequiresCheckin:
		return nil, ErrCheckinNotRequired
	case b.CheckedInAt != nil:
		return nil, ErrAlreadyCheckedIn
	case !b.Status.IsActive():
		return nil, ErrInvalidStatus
	case !b.EndTime.After(now):
		return nil, ErrAlreadyEnded
	}

	before := b.snapshot()
	b.CheckedInAt = &now
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.record(ctx, audit.ActionCheckIn, b.ID, u.ID, before, b, "checked in")
	return b, nil
}

func (s *service) AutoCancel(ctx context.Context, id string) (bool, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	now := s.clock.Now()
	if !b.AutoCancelDue(now) || !b.Status.CanTransitionTo(StatusCancelled) {
		return false, nil
	}

	before := b.snapshot()
	reason := fmt.Sprintf("not checked in within %d minutes of start", *b.AutoCancelMinutes)
	b.Status = StatusCancelled
	b.AutoCancelledAt = &now
	b.CancellationReason = &reason
	if err := s.repo.Update(ctx, b); err != nil {
		if errors.Is(err, ErrConcurrentUpdate) {
			// Someone else changed the row first; the next run re-evaluates it.
			return false, nil
		}
		return false, err
	}

	if err := s.equipment.ReleaseForBooking(ctx, b.ID); err != nil {
		s.logger.Error("release equipment for auto-cancelled booking", zap.String("booking_id", b.ID), zap.Error(err))
	}

	s.record(ctx, audit.ActionAutoCancel, b.ID, "", before, b, reason)
	s.notifyCurrent(ctx, notification.KindBookingAutoCancelled, b, reason)
	return true, nil
}

func (s *service) RunAutoCancelSweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	due, err := s.repo.ListAutoCancelDue(ctx, s.clock.Now())
	if err != nil {
		return report, err
	}

	for _, b := range due {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Examined++
		cancelled, err := s.AutoCancel(ctx, b.ID)
		switch {
		case err != nil:
			report.Failed++
			s.logger.Error("auto-cancel booking", zap.String("booking_id", b.ID), zap.Error(err))
		case cancelled:
			report.Cancelled++
		default:
			report.Skipped++
		}
	}

	s.logger.Info("auto-cancel sweep finished",
		zap.Int("examined", report.Examined),
		zap.Int("cancelled", report.Cancelled),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func bulk(ids []string, op func(id string) (*Booking, error)) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		b, err := op(id)
		results = append(results, BulkResult{ID: id, Booking: b, Err: err})
	}
	return results
}

func (s *service) BulkApprove(ctx context.Context, actorID string, ids []string, reason string) []BulkResult {
	return bulk(ids, func(id string) (*Booking, error) { return s.Approve(ctx, actorID, id, reason) })
}

func (s *service) BulkReject(ctx context.Context, actorID string, ids []string, reason string) []BulkResult {
	return bulk(ids, func(id string) (*Booking, error) { return s.Reject(ctx, actorID, id, reason) })
}

func (s *service) BulkCancel(ctx context.Context, actorID string, ids []string, reason string) []BulkResult {
	return bulk(ids, func(id string) (*Booking, error) { return s.Cancel(ctx, actorID, id, reason) })
}

func (s *service) Purge(ctx context.Context, actorID, id string) error {
	admin, err := s.admin(ctx, actorID)
	if err != nil {
		return err
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// Lines cascade with the booking row, so stock is credited from this
	// snapshot and only once the delete has committed.
	lines, err := s.equipment.ListLines(ctx, b.ID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, b.ID); err != nil {
		return err
	}

	s.record(ctx, audit.ActionPurge, b.ID, admin.ID, b, nil, "booking purged")
	if err := s.equipment.Restock(ctx, lines); err != nil {
		s.logger.Error("restock equipment after purge", zap.String("booking_id", b.ID), zap.Error(err))
		return fmt.Errorf("restock equipment for purged booking %s failed: %w", b.ID, err)
	}
	return nil
}

func (s *service) ListEquipment(ctx context.Context, actorID, bookingID string) ([]*equipment.Line, error) {
	if _, _, err := s.owned(ctx, actorID, bookingID); err != nil {
		return nil, err
	}
	return s.equipment.ListLines(ctx, bookingID)
}

func (s *service) AttachEquipment(ctx context.Context, actorID, bookingID string, req EquipmentRequest) (*equipment.Line, error) {
	_, b, err := s.owned(ctx, actorID, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.Status.IsActive() {
		return nil, ErrInvalidStatus
	}
	if !b.EndTime.After(s.clock.Now()) {
		return nil, ErrAlreadyEnded
	}
	return s.equipment.Attach(ctx, b.ID, req.ItemID, req.Quantity, b.Status == StatusApproved)
}

// lineOf loads a line and checks it belongs to the booking.
func (s *service) lineOf(ctx context.Context, bookingID, lineID string) (*equipment.Line, error) {
	line, err := s.equipment.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line.BookingID != bookingID {
		return nil, equipment.ErrLineNotFound
	}
	return line, nil
}

func (s *service) ChangeEquipmentQuantity(ctx context.Context, actorID, bookingID, lineID string, qty int) (*equipment.Line, error) {
	_, b, err := s.owned(ctx, actorID, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.Status.IsActive() {
		return nil, ErrInvalidStatus
	}
	if _, err := s.lineOf(ctx, b.ID, lineID); err != nil {
		return nil, err
	}
	return s.equipment.ChangeQuantity(ctx, lineID, qty)
}

func (s *service) DetachEquipment(ctx context.Context, actorID, bookingID, lineID string) error {
	if _, _, err := s.owned(ctx, actorID, bookingID); err != nil {
		return err
	}
	if _, err := s.lineOf(ctx, bookingID, lineID); err != nil {
		return err
	}
	return s.equipment.Detach(ctx, lineID)
}

func (s *service) ApproveEquipment(ctx context.Context, actorID, bookingID, lineID string) (*equipment.Line, error) {
	if _, err := s.admin(ctx, actorID); err != nil {
		return nil, err
	}
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.Status.IsActive() {
		return nil, ErrInvalidStatus
	}
	if _, err := s.lineOf(ctx, b.ID, lineID); err != nil {
		return nil, err
	}
	return s.equipment.ApproveLine(ctx, lineID)
}

func (s *service) RejectEquipment(ctx context.Context, actorID, bookingID, lineID string) (*equipment.Line, error) {
	if _, err := s.admin(ctx, actorID); err != nil {
		return nil, err
	}
	if _, err := s.lineOf(ctx, bookingID, lineID); err != nil {
		return nil, err
	}
	return s.equipment.RejectLine(ctx, lineID)
}

func (s *service) IsAvailable(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (bool, error) {
	overlap, err := s.repo.HasOverlap(ctx, resourceID, start, end, excludeID)
	if err != nil {
		return false, err
	}
	return !overlap, nil
}

func (s *service) ActiveForResource(ctx context.Context, resourceID string, from, to time.Time) ([]*Booking, error) {
	return s.repo.ListActiveForResource(ctx, resourceID, from, to)
}

func (s *service) ListForSeries(ctx context.Context, seriesID string) ([]*Booking, error) {
	return s.repo.ListForSeries(ctx, seriesID)
}

// record writes an audit entry. Failures are logged, never surfaced: the
// transition has already been committed.
func (s *service) record(ctx context.Context, action audit.Action, id, actorID string, before, after any, msg string) {
	if s.audit == nil {
		return
	}
	if b, ok := before.(*Booking); ok && b != nil {
		before = b.snapshot()
	}
	if b, ok := after.(*Booking); ok && b != nil {
		after = b.snapshot()
	}
	entry := audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   id,
		ActorID:    actorID,
		Before:     audit.Snapshot(before),
		After:      audit.Snapshot(after),
		Message:    msg,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("record audit entry", zap.String("booking_id", id), zap.String("action", string(action)), zap.Error(err))
	}
}

func (s *service) notifyCurrent(ctx context.Context, kind notification.Kind, b *Booking, reason string) {
	cfg, err := s.policies.Current(ctx)
	if err != nil {
		s.logger.Error("load policy for notification", zap.String("booking_id", b.ID), zap.Error(err))
		return
	}
	s.notify(ctx, cfg, kind, b, reason)
}

func (s *service) notify(ctx context.Context, cfg policy.Configuration, kind notification.Kind, b *Booking, reason string) {
	if !cfg.Notifies(kind) {
		return
	}
	payload := map[string]any{
		"booking_id":  b.ID,
		"resource_id": b.ResourceID,
		"start_time":  b.StartTime,
		"end_time":    b.EndTime,
		"status":      b.Status,
		"purpose":     b.Purpose,
	}
	if reason != "" {
		payload["reason"] = reason
	}
	if err := s.notifier.Notify(ctx, notification.Intent{Kind: kind, RecipientID: b.UserID, Payload: payload}); err != nil {
		s.logger.Error("emit notification intent", zap.String("booking_id", b.ID), zap.String("kind", string(kind)), zap.Error(err))
	}
}
