package series

import (
	"slices"
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/booking"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/apperror"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/timeutil"
)

var (
	ErrNotFound          = apperror.New(apperror.KindNotFound, "series not found")
	ErrInvalidKind       = apperror.New(apperror.KindValidation, "unknown recurrence kind")
	ErrInvalidInterval   = apperror.New(apperror.KindValidation, "interval must be between 1 and 12")
	ErrInvalidDays       = apperror.New(apperror.KindValidation, "weekdays must be between 0 (Sunday) and 6")
	ErrInvalidDayOfMonth = apperror.New(apperror.KindValidation, "day of month must be between 1 and 31")
	ErrInvalidPattern    = apperror.New(apperror.KindValidation, "custom pattern needs weekdays and weeks of month between 1 and 5")
	ErrInvalidClock      = apperror.New(apperror.KindValidation, "start and end must be HH:MM with start before end")
	ErrEndCondition      = apperror.New(apperror.KindValidation, "end date and max occurrences are mutually exclusive")
	ErrInvalidEndDate    = apperror.New(apperror.KindValidation, "end date must not be before start date")
	ErrInvalidMax        = apperror.New(apperror.KindValidation, "max occurrences must be positive")
	ErrPurposeRequired   = apperror.New(apperror.KindValidation, "purpose is required")
	ErrInactive          = apperror.New(apperror.KindTransition, "series is not active")
	ErrPermissionDenied  = apperror.New(apperror.KindUnauthorized, "permission denied")
)

const (
	MinInterval = 1
	MaxInterval = 12

	// defaultHorizon bounds materialization for series without an end date.
	defaultHorizon = 3 // months
)

type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
	KindCustom  Kind = "custom"
)

func (k Kind) Valid() bool {
	switch k {
	case KindDaily, KindWeekly, KindMonthly, KindCustom:
		return true
	default:
		return false
	}
}

// Pattern drives the custom kind: a weekday set combined with the weeks of
// the month (1..5, where week n holds days 7n-6..7n).
type Pattern struct {
	Days  []int `json:"days"`
	Weeks []int `json:"weeks"`
}

type Series struct {
	ID                string
	UserID            string
	ResourceID        string
	Kind              Kind
	Interval          int
	DaysOfWeek        []int // 0=Sunday..6, weekly only
	DayOfMonth        *int  // monthly only
	Pattern           *Pattern
	StartDate         time.Time
	EndDate           *time.Time
	MaxOccurrences    *int
	StartTime         timeutil.ClockTime
	EndTime           timeutil.ClockTime
	Purpose           string
	Notes             string
	RequiresCheckin   bool
	AutoCancelMinutes *int
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Check validates the recurrence description.
func (s *Series) Check() error {
	if !s.Kind.Valid() {
		return ErrInvalidKind
	}
	if s.Interval < MinInterval || s.Interval > MaxInterval {
		return ErrInvalidInterval
	}
	if !s.StartTime.Before(s.EndTime) {
		return ErrInvalidClock
	}
	if s.EndDate != nil && s.MaxOccurrences != nil {
		return ErrEndCondition
	}
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		return ErrInvalidEndDate
	}
	if s.MaxOccurrences != nil && *s.MaxOccurrences <= 0 {
		return ErrInvalidMax
	}
	// Occurrences inherit these, so they must pass booking validation.
	if s.AutoCancelMinutes != nil {
		if !s.RequiresCheckin {
			return booking.ErrAutoCancelNeedsCheckin
		}
		if m := *s.AutoCancelMinutes; m < booking.MinAutoCancelMinutes || m > booking.MaxAutoCancelMinutes {
			return booking.ErrInvalidAutoCancel
		}
	}

	switch s.Kind {
	case KindWeekly:
		if len(s.DaysOfWeek) == 0 || !weekdays(s.DaysOfWeek) {
			return ErrInvalidDays
		}
	case KindMonthly:
		if s.DayOfMonth == nil || *s.DayOfMonth < 1 || *s.DayOfMonth > 31 {
			return ErrInvalidDayOfMonth
		}
	case KindCustom:
		if s.Pattern == nil || len(s.Pattern.Days) == 0 || len(s.Pattern.Weeks) == 0 || !weekdays(s.Pattern.Days) {
			return ErrInvalidPattern
		}
		for _, w := range s.Pattern.Weeks {
			if w < 1 || w > 5 {
				return ErrInvalidPattern
			}
		}
	}
	return nil
}

func weekdays(days []int) bool {
	for _, d := range days {
		if d < 0 || d > 6 {
			return false
		}
	}
	return true
}

// Occurrence returns the reservation interval of the series on day.
func (s *Series) Occurrence(day time.Time, loc *time.Location) (start, end time.Time) {
	return s.StartTime.On(day, loc), s.EndTime.On(day, loc)
}

// DefaultUntil is the last day materialized when the caller gives no bound.
func (s *Series) DefaultUntil(now time.Time) time.Time {
	if s.EndDate != nil {
		return *s.EndDate
	}
	return now.AddDate(0, defaultHorizon, 0)
}

func (s *Series) matchesWeekday(d time.Time) bool {
	return slices.Contains(s.DaysOfWeek, int(d.Weekday()))
}

func (s *Series) matchesPattern(d time.Time) bool {
	week := (d.Day()-1)/7 + 1
	return slices.Contains(s.Pattern.Days, int(d.Weekday())) && slices.Contains(s.Pattern.Weeks, week)
}

type Filter struct {
	UserID     string
	ResourceID string
	IsActive   *bool
	Page       int
	PageSize   int
}
