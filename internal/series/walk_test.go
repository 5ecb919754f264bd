package series

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/timeutil"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func newSeries(kind Kind, start time.Time) *Series {
	return &Series{
		Kind:      kind,
		Interval:  1,
		StartDate: start,
		StartTime: timeutil.MustParseClock("10:00"),
		EndTime:   timeutil.MustParseClock("11:00"),
		Purpose:   "practice",
	}
}

func days(s *Series, until time.Time) []string {
	var out []string
	for d := range Walk(s, until, time.UTC) {
		out = append(out, d.Format(time.DateOnly))
	}
	return out
}

func TestWalk(t *testing.T) {
	t.Run("Weekly on Mon Wed Fri over two weeks", func(t *testing.T) {
		s := newSeries(KindWeekly, date(2026, time.March, 2))
		s.DaysOfWeek = []int{1, 3, 5}
		require.NoError(t, s.Check())

		assert.Equal(t, []string{
			"2026-03-02", "2026-03-04", "2026-03-06",
			"2026-03-09", "2026-03-11", "2026-03-13",
		}, days(s, date(2026, time.March, 15)))
	})

	t.Run("Weekly every other week skips days before the start", func(t *testing.T) {
		s := newSeries(KindWeekly, date(2026, time.March, 4)) // Wednesday
		s.Interval = 2
		s.DaysOfWeek = []int{2}

		assert.Equal(t, []string{"2026-03-17", "2026-03-31"}, days(s, date(2026, time.March, 31)))
	})

	t.Run("Monthly on the 31st skips short months", func(t *testing.T) {
		s := newSeries(KindMonthly, date(2026, time.January, 1))
		s.DayOfMonth = ptr(31)
		require.NoError(t, s.Check())

		assert.Equal(t, []string{"2026-01-31", "2026-03-31", "2026-05-31"}, days(s, date(2026, time.June, 30)))
	})

	t.Run("Daily stops at the end date", func(t *testing.T) {
		s := newSeries(KindDaily, date(2026, time.March, 1))
		s.Interval = 3
		end := date(2026, time.March, 10)
		s.EndDate = &end

		assert.Equal(t, []string{"2026-03-01", "2026-03-04", "2026-03-07", "2026-03-10"}, days(s, date(2026, time.December, 31)))
	})

	t.Run("Custom pattern picks weekdays in chosen weeks", func(t *testing.T) {
		s := newSeries(KindCustom, date(2026, time.March, 1))
		s.Pattern = &Pattern{Days: []int{2}, Weeks: []int{1, 3}}
		require.NoError(t, s.Check())

		assert.Equal(t, []string{"2026-03-03", "2026-03-17", "2026-04-07", "2026-04-21"}, days(s, date(2026, time.April, 30)))

		s.Interval = 2
		assert.Equal(t, []string{"2026-03-03", "2026-03-17"}, days(s, date(2026, time.April, 30)))
	})

	t.Run("Start date keeps its calendar day west of UTC", func(t *testing.T) {
		ny, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)

		s := newSeries(KindDaily, date(2026, time.March, 2))
		var got []time.Time
		for d := range Walk(s, time.Date(2026, time.March, 3, 12, 0, 0, 0, ny), ny) {
			got = append(got, d)
		}
		require.Len(t, got, 2)
		assert.Equal(t, time.Date(2026, time.March, 2, 0, 0, 0, 0, ny), got[0])
	})

	t.Run("Consumers can stop early", func(t *testing.T) {
		s := newSeries(KindDaily, date(2026, time.March, 1))
		var got []time.Time
		for d := range Walk(s, date(2027, time.March, 1), time.UTC) {
			got = append(got, d)
			if len(got) == 3 {
				break
			}
		}
		assert.Len(t, got, 3)
		assert.True(t, slices.IsSortedFunc(got, func(a, b time.Time) int { return a.Compare(b) }))
	})
}

func TestCheck(t *testing.T) {
	base := func() *Series {
		s := newSeries(KindWeekly, date(2026, time.March, 2))
		s.DaysOfWeek = []int{1}
		return s
	}

	cases := []struct {
		name   string
		mutate func(*Series)
		want   error
	}{
		{"unknown kind", func(s *Series) { s.Kind = "yearly" }, ErrInvalidKind},
		{"interval too large", func(s *Series) { s.Interval = 13 }, ErrInvalidInterval},
		{"start after end", func(s *Series) { s.EndTime = timeutil.MustParseClock("09:00") }, ErrInvalidClock},
		{"weekday out of range", func(s *Series) { s.DaysOfWeek = []int{7} }, ErrInvalidDays},
		{"no weekdays", func(s *Series) { s.DaysOfWeek = nil }, ErrInvalidDays},
		{"both end conditions", func(s *Series) {
			end := date(2026, time.April, 1)
			s.EndDate = &end
			s.MaxOccurrences = ptr(3)
		}, ErrEndCondition},
		{"end before start", func(s *Series) {
			end := date(2026, time.February, 1)
			s.EndDate = &end
		}, ErrInvalidEndDate},
		{"zero max", func(s *Series) { s.MaxOccurrences = ptr(0) }, ErrInvalidMax},
		{"monthly without day", func(s *Series) { s.Kind = KindMonthly }, ErrInvalidDayOfMonth},
		{"custom week out of range", func(s *Series) {
			s.Kind = KindCustom
			s.Pattern = &Pattern{Days: []int{1}, Weeks: []int{6}}
		}, ErrInvalidPattern},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := base()
			tc.mutate(s)
			assert.ErrorIs(t, s.Check(), tc.want)
		})
	}
}
