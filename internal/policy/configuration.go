package policy

import (
	"fmt"
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/notification"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/apperror"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/timeutil"
)

var ErrInvalidConfiguration = apperror.New(apperror.KindValidation, "invalid policy configuration")

// Configuration is the admin-mutable policy snapshot consumed by Validate.
// Nil limits mean unlimited; empty allow-lists mean unrestricted.
type Configuration struct {
	AllowedStartTime   string              `json:"allowed_start_time" yaml:"allowed_start_time"`
	AllowedEndTime     string              `json:"allowed_end_time" yaml:"allowed_end_time"`
	AllowedWeekdays    []int               `json:"allowed_weekdays" yaml:"allowed_weekdays"` // 0 = Sunday
	Holidays           []string            `json:"holidays" yaml:"holidays"`                 // YYYY-MM-DD
	MinDurationMinutes int                 `json:"min_duration_minutes" yaml:"min_duration_minutes"`
	MaxDurationMinutes int                 `json:"max_duration_minutes" yaml:"max_duration_minutes"`
	WeeklyLimit        *int                `json:"weekly_limit" yaml:"weekly_limit"`
	MonthlyLimit       *int                `json:"monthly_limit" yaml:"monthly_limit"`
	AdvanceDays        *int                `json:"advance_days" yaml:"advance_days"`
	ConcurrentLimit    *int                `json:"concurrent_limit" yaml:"concurrent_limit"`
	AllowedRoles       []string            `json:"allowed_roles" yaml:"allowed_roles"`
	RoleResources      map[string][]string `json:"role_resources" yaml:"role_resources"`
	RoleCategories     map[string][]string `json:"role_categories" yaml:"role_categories"`
	Timezone           string              `json:"timezone" yaml:"timezone"`

	NotificationsEnabled bool `json:"notifications_enabled" yaml:"notifications_enabled"`
	NotifyOnApproval     bool `json:"notify_on_approval" yaml:"notify_on_approval"`
	NotifyOnRejection    bool `json:"notify_on_rejection" yaml:"notify_on_rejection"`
	ReminderBeforeHours  int  `json:"reminder_before_hours" yaml:"reminder_before_hours"`
}

// Defaults returns the configuration used when nothing has been stored.
func Defaults() Configuration {
	return Configuration{
		AllowedStartTime:     "08:00",
		AllowedEndTime:       "18:00",
		MinDurationMinutes:   15,
		MaxDurationMinutes:   480,
		Timezone:             "UTC",
		NotificationsEnabled: true,
		NotifyOnApproval:     true,
		NotifyOnRejection:    true,
		ReminderBeforeHours:  1,
	}
}

// Location resolves Timezone, falling back to UTC.
func (c Configuration) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Window returns the parsed allowed clock-time window. ok is false when
// either bound is unset.
func (c Configuration) Window() (start, end timeutil.ClockTime, ok bool) {
	if c.AllowedStartTime == "" || c.AllowedEndTime == "" {
		return start, end, false
	}
	start, err1 := timeutil.ParseClock(c.AllowedStartTime)
	end, err2 := timeutil.ParseClock(c.AllowedEndTime)
	if err1 != nil || err2 != nil {
		return start, end, false
	}
	return start, end, true
}

// Notifies reports whether an intent of the given kind should be emitted.
func (c Configuration) Notifies(kind notification.Kind) bool {
	if !c.NotificationsEnabled {
		return false
	}
	switch kind {
	case notification.KindBookingApproved:
		return c.NotifyOnApproval
	case notification.KindBookingRejected:
		return c.NotifyOnRejection
	default:
		return true
	}
}

// Check validates the configuration itself, so a bad admin edit is refused
// before it is stored.
func (c Configuration) Check() error {
	var reasons []string

	if c.AllowedStartTime != "" || c.AllowedEndTime != "" {
		start, err1 := timeutil.ParseClock(c.AllowedStartTime)
		end, err2 := timeutil.ParseClock(c.AllowedEndTime)
		switch {
		case err1 != nil || err2 != nil:
			reasons = append(reasons, "allowed time window must be HH:MM")
		case !start.Before(end):
			reasons = append(reasons, "allowed start time must be before allowed end time")
		}
	}
	for _, d := range c.AllowedWeekdays {
		if d < 0 || d > 6 {
			reasons = append(reasons, fmt.Sprintf("weekday %d out of range 0-6", d))
		}
	}
	for _, h := range c.Holidays {
		if _, err := time.Parse(time.DateOnly, h); err != nil {
			reasons = append(reasons, fmt.Sprintf("holiday %q must be YYYY-MM-DD", h))
		}
	}
	if c.MinDurationMinutes < 0 || (c.MaxDurationMinutes > 0 && c.MinDurationMinutes > c.MaxDurationMinutes) {
		reasons = append(reasons, "duration bounds are inconsistent")
	}
	limits := []struct {
		name  string
		value *int
	}{
		{"weekly_limit", c.WeeklyLimit},
		{"monthly_limit", c.MonthlyLimit},
		{"advance_days", c.AdvanceDays},
		{"concurrent_limit", c.ConcurrentLimit},
	}
	for _, l := range limits {
		if l.value != nil && *l.value < 0 {
			reasons = append(reasons, l.name+" must not be negative")
		}
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			reasons = append(reasons, fmt.Sprintf("unknown timezone %q", c.Timezone))
		}
	}
	if c.ReminderBeforeHours < 0 {
		reasons = append(reasons, "reminder_before_hours must not be negative")
	}

	if len(reasons) > 0 {
		return ErrInvalidConfiguration.WithReasons(reasons...)
	}
	return nil
}

// Int is a helper for building configurations with limits.
func Int(v int) *int { return &v }
