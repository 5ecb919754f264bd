package waitlist

import (
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(apperror.KindNotFound, "waitlist entry not found")
	ErrInvalidStatus    = apperror.New(apperror.KindTransition, "waitlist entry status does not allow this action")
	ErrStillBlocked     = apperror.New(apperror.KindConflict, "requested interval is still unavailable")
	ErrPermissionDenied = apperror.New(apperror.KindUnauthorized, "permission denied")
	ErrInvalidTimeRange = apperror.New(apperror.KindValidation, "start time must be before end time")
	ErrStartTimePast    = apperror.New(apperror.KindValidation, "cannot wait for an interval in the past")
	ErrPurposeRequired  = apperror.New(apperror.KindValidation, "purpose is required")
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusNotified  Status = "notified"
	StatusBooked    Status = "booked"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusNotified, StatusBooked, StatusCancelled:
		return true
	default:
		return false
	}
}

// Open reports whether the entry can still become a booking.
func (s Status) Open() bool {
	return s == StatusWaiting || s == StatusNotified
}

func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusWaiting:
		return next == StatusNotified || next == StatusBooked || next == StatusCancelled
	case StatusNotified:
		return next == StatusBooked || next == StatusCancelled
	case StatusBooked, StatusCancelled:
		return false
	default:
		return false
	}
}

type Entry struct {
	ID         string
	UserID     string
	ResourceID string
	StartTime  time.Time
	EndTime    time.Time
	Purpose    string
	AutoBook   bool
	Status     Status
	BookingID  *string
	NotifiedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Transition describes a guarded status change.
type Transition struct {
	From       Status
	To         Status
	BookingID  *string
	NotifiedAt *time.Time
}

type Filter struct {
	UserID     string
	ResourceID string
	Status     Status
	Page       int
	PageSize   int
}
