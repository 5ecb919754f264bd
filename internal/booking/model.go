package booking

import (
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/conflict"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/apperror"
)

var (
	ErrNotFound               = apperror.New(apperror.KindNotFound, "booking not found")
	ErrTimeConflict           = apperror.New(apperror.KindConflict, "time slot already booked")
	ErrConcurrentUpdate       = apperror.New(apperror.KindConflict, "booking was modified concurrently")
	ErrInvalidTimeRange       = apperror.New(apperror.KindValidation, "start time must be before end time")
	ErrStartTimePast          = apperror.New(apperror.KindValidation, "cannot create booking in the past")
	ErrPurposeRequired        = apperror.New(apperror.KindValidation, "purpose is required")
	ErrInvalidAutoCancel      = apperror.New(apperror.KindValidation, "auto-cancel minutes must be between 5 and 60")
	ErrAutoCancelNeedsCheckin = apperror.New(apperror.KindValidation, "auto-cancel requires check-in")
	ErrReasonRequired         = apperror.New(apperror.KindValidation, "a reason is required")
	ErrInvalidInput           = apperror.New(apperror.KindValidation, "invalid input parameters")
	ErrPolicyViolation        = apperror.New(apperror.KindPolicy, "booking violates policy")
	ErrPermissionDenied       = apperror.New(apperror.KindUnauthorized, "permission denied")
	ErrInvalidStatus          = apperror.New(apperror.KindTransition, "booking status does not allow this action")
	ErrAlreadyEnded           = apperror.New(apperror.KindTransition, "booking has already ended")
	ErrAlreadyStarted         = apperror.New(apperror.KindTransition, "booking has already started")
	ErrCheckinNotRequired     = apperror.New(apperror.KindTransition, "booking does not require check-in")
	ErrAlreadyCheckedIn       = apperror.New(apperror.KindTransition, "booking is already checked in")
)

const (
	MinAutoCancelMinutes = 5
	MaxAutoCancelMinutes = 60
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsActive reports whether a booking in this status holds its slot.
func (s Status) IsActive() bool {
	switch s {
	case StatusPending, StatusApproved:
		return true
	case StatusRejected, StatusCancelled:
		return false
	default:
		return false
	}
}

// CanTransitionTo encodes the lifecycle: pending moves to approved, rejected
// or cancelled; approved moves only to cancelled; the rest are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected || next == StatusCancelled
	case StatusApproved:
		return next == StatusCancelled
	case StatusRejected, StatusCancelled:
		return false
	default:
		return false
	}
}

// ActiveStatuses are the statuses that take part in conflict detection.
var ActiveStatuses = []Status{StatusPending, StatusApproved}

type Booking struct {
	ID                 string
	ResourceID         string
	UserID             string
	SeriesID           *string
	StartTime          time.Time
	EndTime            time.Time
	Purpose            string
	Notes              string
	Status             Status
	RequiresCheckin    bool
	AutoCancelMinutes  *int
	CheckedInAt        *time.Time
	AutoCancelledAt    *time.Time
	ApprovalReason     *string
	RejectionReason    *string
	CancellationReason *string
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (b *Booking) Interval() conflict.Interval {
	return conflict.Interval{Start: b.StartTime, End: b.EndTime}
}

// AutoCancelDeadline returns the instant after which an unchecked booking is
// reclaimed. ok is false when the booking has no deadline.
func (b *Booking) AutoCancelDeadline() (time.Time, bool) {
	if !b.RequiresCheckin || b.AutoCancelMinutes == nil {
		return time.Time{}, false
	}
	return b.StartTime.Add(time.Duration(*b.AutoCancelMinutes) * time.Minute), true
}

// AutoCancelDue reports whether the auto-cancel transition applies at now.
func (b *Booking) AutoCancelDue(now time.Time) bool {
	deadline, ok := b.AutoCancelDeadline()
	if !ok || b.CheckedInAt != nil || b.AutoCancelledAt != nil || !b.Status.IsActive() {
		return false
	}
	return now.After(deadline)
}

func (b *Booking) snapshot() map[string]any {
	return map[string]any{
		"id":                  b.ID,
		"resource_id":         b.ResourceID,
		"user_id":             b.UserID,
		"series_id":           b.SeriesID,
		"start_time":          b.StartTime,
		"end_time":            b.EndTime,
		"purpose":             b.Purpose,
		"status":              b.Status,
		"requires_checkin":    b.RequiresCheckin,
		"auto_cancel_minutes": b.AutoCancelMinutes,
		"checked_in_at":       b.CheckedInAt,
		"auto_cancelled_at":   b.AutoCancelledAt,
		"approval_reason":     b.ApprovalReason,
		"rejection_reason":    b.RejectionReason,
		"cancellation_reason": b.CancellationReason,
	}
}

type Filter struct {
	UserID     string
	ResourceID string
	SeriesID   string
	Status     Status
	From       *time.Time // bookings ending after this instant
	To         *time.Time // bookings starting before this instant
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
