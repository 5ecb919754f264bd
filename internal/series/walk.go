package series

import (
	"iter"
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/timeutil"
)

// Walk yields, in order, every date on which the series has an occurrence,
// from its start date through until (inclusive) and never past its end date.
// Dates are midnight in loc. max_occurrences is not applied here.
func Walk(s *Series, until time.Time, loc *time.Location) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		first := timeutil.CalendarDate(s.StartDate, loc)
		last := timeutil.StartOfDay(until, loc)
		if s.EndDate != nil {
			if end := timeutil.CalendarDate(*s.EndDate, loc); end.Before(last) {
				last = end
			}
		}
		if last.Before(first) {
			return
		}

		n := max(s.Interval, 1)
		switch s.Kind {
		case KindDaily:
			for d := first; !d.After(last); d = d.AddDate(0, 0, n) {
				if !yield(d) {
					return
				}
			}

		case KindWeekly:
			for week := timeutil.StartOfWeek(first, loc); !week.After(last); week = week.AddDate(0, 0, 7*n) {
				for i := range 7 {
					d := week.AddDate(0, 0, i)
					if d.Before(first) || !s.matchesWeekday(d) {
						continue
					}
					if d.After(last) || !yield(d) {
						return
					}
				}
			}

		case KindMonthly:
			for month := timeutil.StartOfMonth(first, loc); !month.After(last); month = month.AddDate(0, n, 0) {
				// Months lacking the day are skipped rather than clamped.
				d := month.AddDate(0, 0, *s.DayOfMonth-1)
				if d.Month() != month.Month() || d.Before(first) {
					continue
				}
				if d.After(last) || !yield(d) {
					return
				}
			}

		case KindCustom:
			for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
				if timeutil.MonthsBetween(first, d, loc)%n != 0 || !s.matchesPattern(d) {
					continue
				}
				if !yield(d) {
					return
				}
			}
		}
	}
}
