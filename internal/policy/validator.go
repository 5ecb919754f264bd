package policy

import (
	"fmt"
	"slices"
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/timeutil"
	"github.com/nekogravitycat/room-reservation-engine/internal/user"
)

type ReasonCode string

const (
	ReasonOutsideHours      ReasonCode = "outside_hours"
	ReasonTooShort          ReasonCode = "too_short"
	ReasonTooLong           ReasonCode = "too_long"
	ReasonWeekday           ReasonCode = "weekday_not_allowed"
	ReasonHoliday           ReasonCode = "holiday"
	ReasonWeeklyLimit       ReasonCode = "weekly_limit"
	ReasonMonthlyLimit      ReasonCode = "monthly_limit"
	ReasonConcurrentLimit   ReasonCode = "concurrent_limit"
	ReasonAdvanceHorizon    ReasonCode = "advance_horizon"
	ReasonRoleNotAllowed    ReasonCode = "role_not_allowed"
	ReasonResourceNotInRole ReasonCode = "resource_not_allowed_for_role"
	ReasonCategoryNotInRole ReasonCode = "category_not_allowed_for_role"
)

type Reason struct {
	Code    ReasonCode
	Message string
}

type Requester struct {
	ID   string
	Role user.Role
}

type Room struct {
	ID       string
	Category string
}

// Usage holds the requester's current active bookings relevant to the
// candidate, excluding the candidate itself on reschedule.
type Usage struct {
	Weekly     int // starting within the candidate's week
	Monthly    int // starting within the candidate's month
	Concurrent int // overlapping the candidate interval
}

type Input struct {
	Requester Requester
	Room      Room
	Start     time.Time
	End       time.Time
	Now       time.Time
	Usage     Usage
}

type Result struct {
	Reasons []Reason
}

func (r Result) OK() bool { return len(r.Reasons) == 0 }

// Messages returns the reason messages in check order.
func (r Result) Messages() []string {
	out := make([]string, len(r.Reasons))
	for i, reason := range r.Reasons {
		out[i] = reason.Message
	}
	return out
}

// Has reports whether the result carries the given reason code.
func (r Result) Has(code ReasonCode) bool {
	return slices.ContainsFunc(r.Reasons, func(reason Reason) bool { return reason.Code == code })
}

var weekdayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Validate runs every policy check and returns all violated reasons.
// Elevated roles skip the quota, horizon and role checks but remain bound by
// the time window, duration and calendar checks.
func Validate(cfg Configuration, in Input) Result {
	var res Result
	add := func(code ReasonCode, format string, args ...any) {
		res.Reasons = append(res.Reasons, Reason{Code: code, Message: fmt.Sprintf(format, args...)})
	}
	loc := cfg.Location()

	// Clock-time window and duration.
	if ws, we, ok := cfg.Window(); ok {
		windowStart := ws.On(in.Start, loc)
		windowEnd := we.On(in.Start, loc)
		if in.Start.Before(windowStart) || in.End.After(windowEnd) {
			add(ReasonOutsideHours, "bookings are only allowed between %s and %s", ws, we)
		}
	}
	minutes := int(in.End.Sub(in.Start) / time.Minute)
	if cfg.MinDurationMinutes > 0 && minutes < cfg.MinDurationMinutes {
		add(ReasonTooShort, "minimum booking duration is %d minutes", cfg.MinDurationMinutes)
	}
	if cfg.MaxDurationMinutes > 0 && minutes > cfg.MaxDurationMinutes {
		add(ReasonTooLong, "maximum booking duration is %d minutes", cfg.MaxDurationMinutes)
	}

	// Calendar eligibility.
	weekday := int(in.Start.In(loc).Weekday())
	if len(cfg.AllowedWeekdays) > 0 && !slices.Contains(cfg.AllowedWeekdays, weekday) {
		add(ReasonWeekday, "bookings are not allowed on %s", weekdayNames[weekday])
	}
	if slices.Contains(cfg.Holidays, timeutil.DateKey(in.Start, loc)) {
		add(ReasonHoliday, "bookings are not allowed on holidays")
	}

	if in.Requester.Role.IsElevated() {
		return res
	}

	// Rate limits.
	if cfg.WeeklyLimit != nil && in.Usage.Weekly >= *cfg.WeeklyLimit {
		add(ReasonWeeklyLimit, "weekly limit of %d bookings reached", *cfg.WeeklyLimit)
	}
	if cfg.MonthlyLimit != nil && in.Usage.Monthly >= *cfg.MonthlyLimit {
		add(ReasonMonthlyLimit, "monthly limit of %d bookings reached", *cfg.MonthlyLimit)
	}
	if cfg.ConcurrentLimit != nil && in.Usage.Concurrent >= *cfg.ConcurrentLimit {
		add(ReasonConcurrentLimit, "already holding %d overlapping bookings", *cfg.ConcurrentLimit)
	}

	// Advance-booking horizon.
	if cfg.AdvanceDays != nil && in.Start.After(in.Now.AddDate(0, 0, *cfg.AdvanceDays)) {
		add(ReasonAdvanceHorizon, "bookings can be made at most %d days in advance", *cfg.AdvanceDays)
	}

	// Role eligibility.
	role := string(in.Requester.Role)
	if len(cfg.AllowedRoles) > 0 && !slices.Contains(cfg.AllowedRoles, role) {
		add(ReasonRoleNotAllowed, "role %s may not book rooms", role)
	}
	if ids, ok := cfg.RoleResources[role]; ok && !slices.Contains(ids, in.Room.ID) {
		add(ReasonResourceNotInRole, "role %s may not book this room", role)
	}
	if cats, ok := cfg.RoleCategories[role]; ok && !slices.Contains(cats, in.Room.Category) {
		add(ReasonCategoryNotInRole, "role %s may not book rooms of category %s", role, in.Room.Category)
	}

	return res
}

// NeedsUsage reports whether Validate will look at Usage for this role, so
// callers can skip the counting queries.
func (c Configuration) NeedsUsage(role user.Role) bool {
	if role.IsElevated() {
		return false
	}
	return c.WeeklyLimit != nil || c.MonthlyLimit != nil || c.ConcurrentLimit != nil
}

// UsageWindows returns the calendar week (Monday based) and month containing
// start, as half-open [from, to) ranges in the configured timezone.
func (c Configuration) UsageWindows(start time.Time) (weekFrom, weekTo, monthFrom, monthTo time.Time) {
	loc := c.Location()
	weekFrom = timeutil.StartOfWeek(start, loc)
	weekTo = weekFrom.AddDate(0, 0, 7)
	monthFrom = timeutil.StartOfMonth(start, loc)
	monthTo = monthFrom.AddDate(0, 1, 0)
	return weekFrom, weekTo, monthFrom, monthTo
}
