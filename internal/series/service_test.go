package series_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/room-reservation-engine/internal/booking"
	"github.com/nekogravitycat/room-reservation-engine/internal/policy"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/timeutil"
	"github.com/nekogravitycat/room-reservation-engine/internal/series"
	"github.com/nekogravitycat/room-reservation-engine/internal/testfixtures"
	"github.com/nekogravitycat/room-reservation-engine/internal/user"
)

func date(m time.Month, d int) time.Time {
	return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC)
}

func weekly(userID, roomID string, end time.Time) series.CreateRequest {
	return series.CreateRequest{
		UserID:     userID,
		ResourceID: roomID,
		Kind:       series.KindWeekly,
		DaysOfWeek: []int{1, 3},
		StartDate:  date(time.March, 2),
		EndDate:    &end,
		StartTime:  "10:00",
		EndTime:    "11:00",
		Purpose:    "orchestra rehearsal",
	}
}

func dates(bookings []*booking.Booking) []string {
	out := make([]string, len(bookings))
	for i, b := range bookings {
		out[i] = timeutil.DateKey(b.StartTime, time.UTC)
	}
	return out
}

func TestCreate(t *testing.T) {
	t.Run("Materializes every occurrence through the end date", func(t *testing.T) {
		e := testfixtures.NewEngine()
		member := e.AddUser(user.RoleUser)
		room := e.AddRoom("Hall", "hall")

		sr, report, err := e.Series.Create(t.Context(), weekly(member.ID, room.ID, date(time.March, 15)))
		require.NoError(t, err)
		assert.True(t, sr.IsActive)
		assert.Equal(t, []string{"2026-03-02", "2026-03-04", "2026-03-09", "2026-03-11"}, dates(report.Created))
		for _, b := range report.Created {
			require.NotNil(t, b.SeriesID)
			assert.Equal(t, sr.ID, *b.SeriesID)
			assert.Equal(t, booking.StatusPending, b.Status)
			assert.Equal(t, 10, b.StartTime.Hour())
		}
	})

	t.Run("Materialize is idempotent", func(t *testing.T) {
		e := testfixtures.NewEngine()
		member := e.AddUser(user.RoleUser)
		room := e.AddRoom("Hall", "hall")

		sr, _, err := e.Series.Create(t.Context(), weekly(member.ID, room.ID, date(time.March, 15)))
		require.NoError(t, err)

		report, err := e.Series.Materialize(t.Context(), sr.ID, date(time.March, 15))
		require.NoError(t, err)
		assert.Empty(t, report.Created)
		assert.Equal(t, 4, report.Existing)
		assert.Len(t, e.BookingRepo.All(), 4)
	})

	t.Run("Conflicting dates are skipped, the rest are booked", func(t *testing.T) {
		e := testfixtures.NewEngine()
		member := e.AddUser(user.RoleUser)
		other := e.AddUser(user.RoleUser)
		room := e.AddRoom("Hall", "hall")

		_, err := e.Bookings.Create(t.Context(), booking.CreateRequest{
			UserID:     other.ID,
			ResourceID: room.ID,
			StartTime:  testfixtures.At(2, "10:30"),
			EndTime:    testfixtures.At(2, "11:30"),
			Purpose:    "interview",
		})
		require.NoError(t, err)

		_, report, err := e.Series.Create(t.Context(), weekly(member.ID, room.ID, date(time.March, 15)))
		require.NoError(t, err)
		assert.Equal(t, []string{"2026-03-02", "2026-03-09", "2026-03-11"}, dates(report.Created))
		require.Len(t, report.Skipped, 1)
		assert.Equal(t, "2026-03-04", report.Skipped[0].Date.Format(time.DateOnly))
	})

	t.Run("Policy violations are skipped per date", func(t *testing.T) {
		e := testfixtures.NewEngine()
		e.Policy.Update(func(c *policy.Configuration) { c.Holidays = []string{"2026-03-09"} })
		member := e.AddUser(user.RoleUser)
		room := e.AddRoom("Hall", "hall")

		_, report, err := e.Series.Create(t.Context(), weekly(member.ID, room.ID, date(time.March, 15)))
		require.NoError(t, err)
		assert.Len(t, report.Created, 3)
		require.Len(t, report.Skipped, 1)
		assert.Equal(t, "2026-03-09", report.Skipped[0].Date.Format(time.DateOnly))
	})

	t.Run("Past occurrences are not booked", func(t *testing.T) {
		e := testfixtures.NewEngine()
		member := e.AddUser(user.RoleUser)
		room := e.AddRoom("Hall", "hall")

		req := weekly(member.ID, room.ID, date(time.March, 9))
		req.DaysOfWeek = []int{1}
		req.StartDate = date(time.February, 23)

		_, report, err := e.Series.Create(t.Context(), req)
		require.NoError(t, err)
		assert.Equal(t, []string{"2026-03-02", "2026-03-09"}, dates(report.Created))
		assert.Empty(t, report.Skipped)
	})

	t.Run("Max occurrences caps the series across runs", func(t *testing.T) {
		e := testfixtures.NewEngine()
		member := e.AddUser(user.RoleUser)
		room := e.AddRoom("Hall", "hall")

		limit := 3
		sr, report, err := e.Series.Create(t.Context(), series.CreateRequest{
			UserID:         member.ID,
			ResourceID:     room.ID,
			Kind:           series.KindDaily,
			StartDate:      date(time.March, 3),
			MaxOccurrences: &limit,
			StartTime:      "14:00",
			EndTime:        "15:00",
			Purpose:        "standup",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"2026-03-03", "2026-03-04", "2026-03-05"}, dates(report.Created))

		report, err = e.Series.Materialize(t.Context(), sr.ID, date(time.April, 30))
		require.NoError(t, err)
		assert.Empty(t, report.Created)
	})

	t.Run("Invalid descriptions are refused before anything is stored", func(t *testing.T) {
		e := testfixtures.NewEngine()
		member := e.AddUser(user.RoleUser)
		room := e.AddRoom("Hall", "hall")

		req := weekly(member.ID, room.ID, date(time.March, 15))
		req.StartTime = "lunch"
		_, _, err := e.Series.Create(t.Context(), req)
		assert.ErrorIs(t, err, series.ErrInvalidClock)

		req = weekly(member.ID, room.ID, date(time.March, 15))
		req.Kind = series.KindMonthly
		_, _, err = e.Series.Create(t.Context(), req)
		assert.ErrorIs(t, err, series.ErrInvalidDayOfMonth)

		tooShort := 2
		req = weekly(member.ID, room.ID, date(time.March, 15))
		req.RequiresCheckin = true
		req.AutoCancelMinutes = &tooShort
		_, _, err = e.Series.Create(t.Context(), req)
		assert.ErrorIs(t, err, booking.ErrInvalidAutoCancel)

		minutes := 15
		req = weekly(member.ID, room.ID, date(time.March, 15))
		req.AutoCancelMinutes = &minutes
		_, _, err = e.Series.Create(t.Context(), req)
		assert.ErrorIs(t, err, booking.ErrAutoCancelNeedsCheckin)
		assert.Empty(t, e.BookingRepo.All())

		_, total, err := e.Series.List(t.Context(), member.ID, series.Filter{Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestPreview(t *testing.T) {
	e := testfixtures.NewEngine()
	member := e.AddUser(user.RoleUser)
	room := e.AddRoom("Hall", "hall")

	_, err := e.Bookings.Create(t.Context(), booking.CreateRequest{
		UserID:     member.ID,
		ResourceID: room.ID,
		StartTime:  testfixtures.At(7, "10:00"),
		EndTime:    testfixtures.At(7, "12:00"),
		Purpose:    "exam",
	})
	require.NoError(t, err)

	preview, err := e.Series.Preview(t.Context(), weekly(member.ID, room.ID, date(time.March, 15)), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 4, preview.Total)
	assert.Equal(t, 3, preview.Available)
	assert.Equal(t, 1, preview.Conflicts)
	assert.False(t, preview.Dates[2].Available, "2026-03-09 is taken")

	assert.Len(t, e.BookingRepo.All(), 1, "preview persists nothing")
	_, total, err := e.Series.List(t.Context(), member.ID, series.Filter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestPreviewMatchesMaterialize(t *testing.T) {
	e := testfixtures.NewEngine()
	member := e.AddUser(user.RoleUser)
	other := e.AddUser(user.RoleUser)
	room := e.AddRoom("Hall", "hall")

	_, err := e.Bookings.Create(t.Context(), booking.CreateRequest{
		UserID:     other.ID,
		ResourceID: room.ID,
		StartTime:  testfixtures.At(2, "10:00"),
		EndTime:    testfixtures.At(2, "11:00"),
		Purpose:    "interview",
	})
	require.NoError(t, err)

	limit := 3
	req := weekly(member.ID, room.ID, time.Time{})
	req.EndDate = nil
	req.MaxOccurrences = &limit
	req.StartDate = date(time.February, 23)

	preview, err := e.Series.Preview(t.Context(), req, time.Time{})
	require.NoError(t, err)
	var free []string
	for _, a := range preview.Dates {
		if a.Available {
			free = append(free, a.Date.Format(time.DateOnly))
		}
	}
	assert.Equal(t, []string{"2026-03-02", "2026-03-09", "2026-03-11"}, free)
	assert.Equal(t, 1, preview.Conflicts, "the taken date does not count toward the cap")
	assert.Equal(t, "2026-03-02", preview.Dates[0].Date.Format(time.DateOnly), "past dates are not previewed")

	_, report, err := e.Series.Create(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, free, dates(report.Created))
}

func TestDelete(t *testing.T) {
	e := testfixtures.NewEngine()
	member := e.AddUser(user.RoleUser)
	stranger := e.AddUser(user.RoleUser)
	room := e.AddRoom("Hall", "hall")

	sr, _, err := e.Series.Create(t.Context(), weekly(member.ID, room.ID, date(time.March, 15)))
	require.NoError(t, err)

	_, err = e.Series.Delete(t.Context(), stranger.ID, sr.ID)
	assert.ErrorIs(t, err, series.ErrPermissionDenied)

	e.Clock.Set(testfixtures.At(3, "09:00"))
	report, err := e.Series.Delete(t.Context(), member.ID, sr.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-09", "2026-03-11"}, dates(report.Cancelled))

	stored, err := e.Series.GetByID(t.Context(), member.ID, sr.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	for _, b := range e.BookingRepo.All() {
		if b.StartTime.Before(e.Clock.Now()) {
			assert.Equal(t, booking.StatusPending, b.Status, "past occurrences are left alone")
		} else {
			assert.Equal(t, booking.StatusCancelled, b.Status)
		}
	}

	_, err = e.Series.Materialize(t.Context(), sr.ID, date(time.March, 31))
	assert.ErrorIs(t, err, series.ErrInactive)
}

func TestExtendActive(t *testing.T) {
	e := testfixtures.NewEngine()
	member := e.AddUser(user.RoleUser)
	room := e.AddRoom("Hall", "hall")

	req := weekly(member.ID, room.ID, time.Time{})
	req.EndDate = nil
	_, first, err := e.Series.Create(t.Context(), req)
	require.NoError(t, err)
	require.NotEmpty(t, first.Created)

	e.Clock.Advance(30 * 24 * time.Hour)
	reports, err := e.Series.ExtendActive(t.Context(), 120*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.NotEmpty(t, reports[0].Created)

	seen := map[string]bool{}
	for _, b := range e.BookingRepo.All() {
		key := timeutil.DateKey(b.StartTime, time.UTC)
		assert.False(t, seen[key], "duplicate occurrence on %s", key)
		seen[key] = true
	}
}

func TestReadsAreScopedToOwner(t *testing.T) {
	e := testfixtures.NewEngine()
	owner := e.AddUser(user.RoleUser)
	stranger := e.AddUser(user.RoleUser)
	admin := e.AddUser(user.RoleAdmin)
	room := e.AddRoom("Hall", "hall")

	sr, _, err := e.Series.Create(t.Context(), weekly(owner.ID, room.ID, date(time.March, 15)))
	require.NoError(t, err)

	t.Run("Get", func(t *testing.T) {
		_, err := e.Series.GetByID(t.Context(), stranger.ID, sr.ID)
		assert.ErrorIs(t, err, series.ErrPermissionDenied)

		got, err := e.Series.GetByID(t.Context(), admin.ID, sr.ID)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, got.UserID)
	})

	t.Run("List ignores a foreign user filter", func(t *testing.T) {
		all, total, err := e.Series.List(t.Context(), stranger.ID, series.Filter{UserID: owner.ID, Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, all)

		_, total, err = e.Series.List(t.Context(), admin.ID, series.Filter{Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Equal(t, 1, total)

		_, _, err = e.Series.List(t.Context(), "unknown", series.Filter{Page: 1, PageSize: 20})
		assert.ErrorIs(t, err, series.ErrPermissionDenied)
	})
}
