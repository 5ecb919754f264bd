package booking_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/room-reservation-engine/internal/audit"
	"github.com/nekogravitycat/room-reservation-engine/internal/booking"
	"github.com/nekogravitycat/room-reservation-engine/internal/conflict"
	"github.com/nekogravitycat/room-reservation-engine/internal/equipment"
	"github.com/nekogravitycat/room-reservation-engine/internal/notification"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/apperror"
	"github.com/nekogravitycat/room-reservation-engine/internal/policy"
	"github.com/nekogravitycat/room-reservation-engine/internal/resource"
	"github.com/nekogravitycat/room-reservation-engine/internal/testfixtures"
	"github.com/nekogravitycat/room-reservation-engine/internal/user"
)

var at = testfixtures.At

func request(u *user.User, roomID string, start, end time.Time) booking.CreateRequest {
	return booking.CreateRequest{UserID: u.ID, ResourceID: roomID, StartTime: start, EndTime: end, Purpose: "team sync"}
}

// assertNoOverlap checks the load-bearing invariant over everything stored.
func assertNoOverlap(t *testing.T, all []*booking.Booking) {
	t.Helper()
	for i, a := range all {
		for _, b := range all[i+1:] {
			if a.ResourceID != b.ResourceID || !a.Status.IsActive() || !b.Status.IsActive() {
				continue
			}
			assert.False(t, conflict.Overlaps(a.Interval(), b.Interval()),
				"active bookings %s [%s,%s) and %s [%s,%s) overlap", a.ID, a.StartTime, a.EndTime, b.ID, b.StartTime, b.EndTime)
		}
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Requesters land in pending and admins are auto-approved", func(t *testing.T) {
		e := testfixtures.NewEngine()
		room := e.AddRoom("Room A", "meeting")
		member := e.AddUser(user.RoleUser)
		admin := e.AddUser(user.RoleAdmin)

		b, err := e.Bookings.Create(ctx, request(member, room.ID, at(1, "10:00"), at(1, "11:00")))
		require.NoError(t, err)
		assert.Equal(t, booking.StatusPending, b.Status)
		assert.Equal(t, 1, b.Version)

		b2, err := e.Bookings.Create(ctx, request(admin, room.ID, at(1, "11:00"), at(1, "12:00")))
		require.NoError(t, err)
		assert.Equal(t, booking.StatusApproved, b2.Status)
		require.NotNil(t, b2.ApprovalReason)

		assert.Equal(t, []audit.Action{audit.ActionCreate}, e.Audit.Actions(b.ID))
		assert.Len(t, e.Notifications.OfKind(notification.KindBookingCreated), 2)
	})

	t.Run("Start two minutes in the past is never created", func(t *testing.T) {
		e := testfixtures.NewEngine()
		room := e.AddRoom("Room A", "meeting")
		member := e.AddUser(user.RoleUser)

		start := testfixtures.Epoch.Add(-2 * time.Minute)
		_, err := e.Bookings.Create(ctx, request(member, room.ID, start, start.Add(time.Hour)))
		assert.ErrorIs(t, err, booking.ErrStartTimePast)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		assert.Empty(t, e.BookingRepo.All())
	})

	t.Run("Input validation", func(t *testing.T) {
		e := testfixtures.NewEngine()
		room := e.AddRoom("Room A", "meeting")
		member := e.AddUser(user.RoleUser)

		req := request(member, room.ID, at(1, "11:00"), at(1, "10:00"))
		_, err := e.Bookings.Create(ctx, req)
		assert.ErrorIs(t, err, booking.ErrInvalidTimeRange)

		req = request(member, room.ID, at(1, "10:00"), at(1, "11:00"))
		req.Purpose = "  "
		_, err = e.Bookings.Create(ctx, req)
		assert.ErrorIs(t, err, booking.ErrPurposeRequired)

		req = request(member, room.ID, at(1, "10:00"), at(1, "11:00"))
		req.AutoCancelMinutes = policy.Int(10)
		_, err = e.Bookings.Create(ctx, req)
		assert.ErrorIs(t, err, booking.ErrAutoCancelNeedsCheckin)

		req.RequiresCheckin = true
		req.AutoCancelMinutes = policy.Int(90)
		_, err = e.Bookings.Create(ctx, req)
		assert.ErrorIs(t, err, booking.ErrInvalidAutoCancel)
	})

	t.Run("Inactive rooms and unknown callers", func(t *testing.T) {
		e := testfixtures.NewEngine()
		room := e.AddRoom("Closed", "meeting")
		member := e.AddUser(user.RoleUser)
		off := false
		_, err := e.Resources.Update(ctx, room.ID, resource.UpdateRequest{IsActive: &off})
		require.NoError(t, err)

		_, err = e.Bookings.Create(ctx, request(member, room.ID, at(1, "10:00"), at(1, "11:00")))
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

		ghost := &user.User{ID: "no-such-user"}
		_, err = e.Bookings.Create(ctx, request(ghost, room.ID, at(1, "10:00"), at(1, "11:00")))
		assert.ErrorIs(t, err, booking.ErrPermissionDenied)
	})

	t.Run("Overlaps conflict and adjacency does not", func(t *testing.T) {
		e := testfixtures.NewEngine()
		room := e.AddRoom("Room A", "meeting")
		other := e.AddRoom("Room B", "meeting")
		member := e.AddUser(user.RoleUser)

		first, err := e.Bookings.Create(ctx, request(member, room.ID, at(1, "10:00"), at(1, "11:00")))
		require.NoError(t, err)

		_, err = e.Bookings.Create(ctx, request(member, room.ID, at(1, "11:00"), at(1, "12:00")))
		assert.NoError(t, err)

		for _, slot := range [][2]string{{"10:30", "11:30"}, {"09:00", "12:00"}, {"10:15", "10:45"}} {
			_, err = e.Bookings.Create(ctx, request(member, room.ID, at(1, slot[0]), at(1, slot[1])))
			assert.ErrorIs(t, err, booking.ErrTimeConflict, "slot %v", slot)
		}

		_, err = e.Bookings.Create(ctx, request(member, other.ID, at(1, "10:30"), at(1, "11:30")))
		assert.NoError(t, err, "other rooms are independent")

		_, err = e.Bookings.Cancel(ctx, member.ID, first.ID, "plans changed")
		require.NoError(t, err)
		_, err = e.Bookings.Create(ctx, request(member, room.ID, at(1, "10:00"), at(1, "11:00")))
		assert.NoError(t, err, "cancelled bookings free their slot")
	})

	t.Run("Weekly limit rejects the next booking of the booked week", func(t *testing.T) {
		e := testfixtures.NewEngine()
		e.Policy.Update(func(c *policy.Configuration) { c.WeeklyLimit = policy.Int(2) })
		room := e.AddRoom("Room A", "meeting")
		member := e.AddUser(user.RoleUser)
		admin := e.AddUser(user.RoleAdmin)

		for day := 1; day <= 2; day++ {
			_, err := e.Bookings.Create(ctx, request(member, room.ID, at(day, "10:00"), at(day, "11:00")))
			require.NoError(t, err)
		}

		_, err := e.Bookings.Create(ctx, request(member, room.ID, at(3, "10:00"), at(3, "11:00")))
		require.ErrorIs(t, err, booking.ErrPolicyViolation)
		var appErr *apperror.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, []string{"weekly limit of 2 bookings reached"}, appErr.Reasons)

		_, err = e.Bookings.Create(ctx, request(member, room.ID, at(7, "10:00"), at(7, "11:00")))
		assert.NoError(t, err, "next week has its own quota")

		_, err = e.Bookings.Create(ctx, request(admin, room.ID, at(3, "12:00"), at(3, "13:00")))
		assert.NoError(t, err, "admins are exempt from quotas")
	})

	t.Run("Every violated rule is reported", func(t *testing.T) {
		e := testfixtures.NewEngine()
		e.Policy.Update(func(c *policy.Configuration) { c.MaxDurationMinutes = 60 })
		room := e.AddRoom("Room A", "meeting")
		admin := e.AddUser(user.RoleAdmin)

		_, err := e.Bookings.Create(ctx, request(admin, room.ID, at(1, "17:00"), at(1, "19:00")))
		var appErr *apperror.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apperror.KindPolicy, appErr.Kind)
		assert.Len(t, appErr.Reasons, 2, "outside hours and too long bind admins too")
	})

	t.Run("Equipment is checked before insert and approved with the booking", func(t *testing.T) {
		e := testfixtures.NewEngine()
		room := e.AddRoom("Room A", "meeting")
		admin := e.AddUser(user.RoleAdmin)
		member := e.AddUser(user.RoleUser)
		projector := e.EquipmentRepo.AddItem("Projector", 2)

		req := request(member, room.ID, at(1, "10:00"), at(1, "11:00"))
		req.Equipment = []booking.EquipmentRequest{{ItemID: projector.ID, Quantity: 3}}
		_, err := e.Bookings.Create(ctx, req)
		assert.ErrorIs(t, err, equipment.ErrInsufficientStock)
		assert.Empty(t, e.BookingRepo.All())

		req = request(admin, room.ID, at(1, "10:00"), at(1, "11:00"))
		req.Equipment = []booking.EquipmentRequest{{ItemID: projector.ID, Quantity: 2}}
		b, err := e.Bookings.Create(ctx, req)
		require.NoError(t, err)
		lines, err := e.Bookings.ListEquipment(ctx, admin.ID, b.ID)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, equipment.LineStatusApproved, lines[0].Status)
		item, _ := e.Equipment.GetItem(ctx, projector.ID)
		assert.Equal(t, 0, item.AvailableQuantity)

		_, err = e.Bookings.Cancel(ctx, admin.ID, b.ID, "")
		require.NoError(t, err)
		item, _ = e.Equipment.GetItem(ctx, projector.ID)
		assert.Equal(t, 2, item.AvailableQuantity, "cancellation releases approved lines")
	})
}

func TestTransitions(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*testfixtures.Engine, *user.User, *user.User, *booking.Booking) {
		t.Helper()
		e := testfixtures.NewEngine()
		room := e.AddRoom("Room A", "meeting")
		member := e.AddUser(user.RoleUser)
		admin := e.AddUser(user.RoleAdmin)
		b, err := e.Bookings.Create(ctx, request(member, room.ID, at(1, "10:00"), at(1, "11:00")))
		require.NoError(t, err)
		return e, member, admin, b
	}

	t.Run("Approve is admin only and requires pending", func(t *testing.T) {
		e, member, admin, b := setup(t)

		_, err := e.Bookings.Approve(ctx, member.ID, b.ID, "")
		assert.ErrorIs(t, err, booking.ErrPermissionDenied)

		got, err := e.Bookings.Approve(ctx, admin.ID, b.ID, "looks fine")
		require.NoError(t, err)
		assert.Equal(t, booking.StatusApproved, got.Status)

		_, err = e.Bookings.Approve(ctx, admin.ID, b.ID, "")
		assert.ErrorIs(t, err, booking.ErrInvalidStatus)
		assert.Equal(t, []audit.Action{audit.ActionCreate, audit.ActionApprove}, e.Audit.Actions(b.ID))
		assert.Len(t, e.Notifications.OfKind(notification.KindBookingApproved), 1)
	})

	t.Run("Approval notifications follow the policy switch", func(t *testing.T) {
		e, _, admin, b := setup(t)
		e.Policy.Update(func(c *policy.Configuration) { c.NotifyOnApproval = false })

		_, err := e.Bookings.Approve(ctx, admin.ID, b.ID, "")
		require.NoError(t, err)
		assert.Empty(t, e.Notifications.OfKind(notification.KindBookingApproved))
	})

	t.Run("Reject needs a reason", func(t *testing.T) {
		e, _, admin, b := setup(t)

		_, err := e.Bookings.Reject(ctx, admin.ID, b.ID, " ")
		assert.ErrorIs(t, err, booking.ErrReasonRequired)

		got, err := e.Bookings.Reject(ctx, admin.ID, b.ID, "room is under maintenance")
		require.NoError(t, err)
		assert.Equal(t, booking.StatusRejected, got.Status)
		require.NotNil(t, got.RejectionReason)

		_, err = e.Bookings.Cancel(ctx, admin.ID, b.ID, "")
		assert.ErrorIs(t, err, booking.ErrInvalidStatus, "rejected is terminal")
	})

	t.Run("Cancel is owner or admin and refused after the end", func(t *testing.T) {
		e, _, _, b := setup(t)
		stranger := e.AddUser(user.RoleUser)

		_, err := e.Bookings.Cancel(ctx, stranger.ID, b.ID, "")
		assert.ErrorIs(t, err, booking.ErrPermissionDenied)

		e.Clock.Set(at(1, "11:00"))
		_, err = e.Bookings.Cancel(ctx, b.UserID, b.ID, "")
		assert.ErrorIs(t, err, booking.ErrAlreadyEnded)
	})

	t.Run("Reschedule excludes itself and forces approval", func(t *testing.T) {
		e, member, _, b := setup(t)
		blocker, err := e.Bookings.Create(ctx, request(member, b.ResourceID, at(1, "13:00"), at(1, "14:00")))
		require.NoError(t, err)

		got, err := e.Bookings.Reschedule(ctx, member.ID, b.ID, booking.RescheduleRequest{StartTime: at(1, "10:30"), EndTime: at(1, "11:30")})
		require.NoError(t, err)
		assert.Equal(t, booking.StatusApproved, got.Status)
		assert.Equal(t, at(1, "10:30"), got.StartTime)

		_, err = e.Bookings.Reschedule(ctx, member.ID, b.ID, booking.RescheduleRequest{StartTime: at(1, "13:30"), EndTime: at(1, "14:30")})
		assert.ErrorIs(t, err, booking.ErrTimeConflict)

		other := e.AddRoom("Room B", "meeting")
		got, err = e.Bookings.Reschedule(ctx, member.ID, blocker.ID, booking.RescheduleRequest{ResourceID: &other.ID, StartTime: at(1, "10:30"), EndTime: at(1, "11:30")})
		require.NoError(t, err)
		assert.Equal(t, other.ID, got.ResourceID)
		assertNoOverlap(t, e.BookingRepo.All())
	})

	t.Run("Reschedule is refused once started or terminal", func(t *testing.T) {
		e, member, admin, b := setup(t)

		e.Clock.Set(at(1, "10:00"))
		_, err := e.Bookings.Reschedule(ctx, member.ID, b.ID, booking.RescheduleRequest{StartTime: at(2, "10:00"), EndTime: at(2, "11:00")})
		assert.ErrorIs(t, err, booking.ErrAlreadyStarted)

		e.Clock.Set(testfixtures.Epoch)
		_, err = e.Bookings.Reject(ctx, admin.ID, b.ID, "no")
		require.NoError(t, err)
		_, err = e.Bookings.Reschedule(ctx, member.ID, b.ID, booking.RescheduleRequest{StartTime: at(2, "10:00"), EndTime: at(2, "11:00")})
		assert.ErrorIs(t, err, booking.ErrInvalidStatus)
	})

	t.Run("Check-in rules", func(t *testing.T) {
		e, member, _, plain := setup(t)
		_, err := e.Bookings.CheckIn(ctx, member.ID, plain.ID)
		assert.ErrorIs(t, err, booking.ErrCheckinNotRequired)

		req := request(member, plain.ResourceID, at(1, "12:00"), at(1, "13:00"))
		req.RequiresCheckin = true
		b, err := e.Bookings.Create(ctx, req)
		require.NoError(t, err)

		e.Clock.Set(at(1, "12:02"))
		got, err := e.Bookings.CheckIn(ctx, member.ID, b.ID)
		require.NoError(t, err)
		require.NotNil(t, got.CheckedInAt)
		assert.Equal(t, at(1, "12:02"), *got.CheckedInAt)

		_, err = e.Bookings.CheckIn(ctx, member.ID, b.ID)
		assert.ErrorIs(t, err, booking.ErrAlreadyCheckedIn)
	})

	t.Run("Stale versions lose", func(t *testing.T) {
		e, _, _, b := setup(t)
		stale, err := e.BookingRepo.GetByID(ctx, b.ID)
		require.NoError(t, err)

		_, err = e.Bookings.Cancel(ctx, b.UserID, b.ID, "")
		require.NoError(t, err)

		stale.Status = booking.StatusApproved
		assert.ErrorIs(t, e.BookingRepo.Update(ctx, stale), booking.ErrConcurrentUpdate)
	})
}

func TestAutoCancelSweep(t *testing.T) {
	ctx := context.Background()
	e := testfixtures.NewEngine()
	room := e.AddRoom("Room A", "meeting")
	member := e.AddUser(user.RoleUser)
	projector := e.EquipmentRepo.AddItem("Projector", 1)
	admin := e.AddUser(user.RoleAdmin)

	noShow := request(admin, room.ID, at(1, "10:00"), at(1, "11:00"))
	noShow.RequiresCheckin = true
	noShow.AutoCancelMinutes = policy.Int(10)
	noShow.Equipment = []booking.EquipmentRequest{{ItemID: projector.ID, Quantity: 1}}
	missed, err := e.Bookings.Create(ctx, noShow)
	require.NoError(t, err)

	present := request(member, room.ID, at(1, "11:00"), at(1, "12:00"))
	present.RequiresCheckin = true
	present.AutoCancelMinutes = policy.Int(5)
	attended, err := e.Bookings.Create(ctx, present)
	require.NoError(t, err)

	e.Clock.Set(at(1, "11:01"))
	_, err = e.Bookings.CheckIn(ctx, member.ID, attended.ID)
	require.NoError(t, err)

	t.Run("Two runs cancel each eligible booking exactly once", func(t *testing.T) {
		first, err := e.Bookings.RunAutoCancelSweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, booking.SweepReport{Examined: 1, Cancelled: 1}, first)

		second, err := e.Bookings.RunAutoCancelSweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, second.Cancelled)

		got, err := e.BookingRepo.GetByID(ctx, missed.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, got.Status)
		assert.NotNil(t, got.AutoCancelledAt)
		assert.Len(t, e.Notifications.OfKind(notification.KindBookingAutoCancelled), 1)

		item, _ := e.Equipment.GetItem(ctx, projector.ID)
		assert.Equal(t, 1, item.AvailableQuantity)
	})

	t.Run("Direct calls on ineligible bookings are no-ops", func(t *testing.T) {
		ok, err := e.Bookings.AutoCancel(ctx, missed.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = e.Bookings.AutoCancel(ctx, attended.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestBulkAndPurge(t *testing.T) {
	ctx := context.Background()
	e := testfixtures.NewEngine()
	room := e.AddRoom("Room A", "meeting")
	member := e.AddUser(user.RoleUser)
	admin := e.AddUser(user.RoleAdmin)

	var ids []string
	for hour := 10; hour < 13; hour++ {
		b, err := e.Bookings.Create(ctx, request(member, room.ID, at(1, fmt.Sprintf("%02d:00", hour)), at(1, fmt.Sprintf("%02d:00", hour+1))))
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	t.Run("One failure never aborts the batch", func(t *testing.T) {
		results := e.Bookings.BulkApprove(ctx, admin.ID, append([]string{"missing"}, ids[:2]...), "")
		require.Len(t, results, 3)
		assert.ErrorIs(t, results[0].Err, booking.ErrNotFound)
		assert.NoError(t, results[1].Err)
		assert.NoError(t, results[2].Err)

		results = e.Bookings.BulkReject(ctx, admin.ID, ids, "closed")
		assert.ErrorIs(t, results[0].Err, booking.ErrInvalidStatus)
		assert.NoError(t, results[2].Err)

		results = e.Bookings.BulkCancel(ctx, member.ID, ids[:2], "")
		assert.NoError(t, results[0].Err)
		assert.NoError(t, results[1].Err)
	})

	t.Run("Members only list their own bookings", func(t *testing.T) {
		stranger := e.AddUser(user.RoleUser)
		_, total, err := e.Bookings.List(ctx, stranger.ID, booking.Filter{})
		require.NoError(t, err)
		assert.Zero(t, total)

		_, total, err = e.Bookings.List(ctx, admin.ID, booking.Filter{})
		require.NoError(t, err)
		assert.Equal(t, 3, total)

		_, _, err = e.Bookings.List(ctx, admin.ID, booking.Filter{Status: "archived"})
		assert.ErrorIs(t, err, booking.ErrInvalidInput)
	})

	t.Run("Purge is admin only and audited", func(t *testing.T) {
		assert.ErrorIs(t, e.Bookings.Purge(ctx, member.ID, ids[0]), booking.ErrPermissionDenied)

		require.NoError(t, e.Bookings.Purge(ctx, admin.ID, ids[0]))
		_, err := e.BookingRepo.GetByID(ctx, ids[0])
		assert.ErrorIs(t, err, booking.ErrNotFound)
		actions := e.Audit.Actions(ids[0])
		assert.Equal(t, audit.ActionPurge, actions[len(actions)-1])
	})

	t.Run("Purge returns equipment only once the row is gone", func(t *testing.T) {
		e := testfixtures.NewEngine()
		room := e.AddRoom("Room B", "meeting")
		admin := e.AddUser(user.RoleAdmin)
		projector := e.EquipmentRepo.AddItem("Projector", 2)

		req := request(admin, room.ID, at(1, "10:00"), at(1, "11:00"))
		req.Equipment = []booking.EquipmentRequest{{ItemID: projector.ID, Quantity: 2}}
		b, err := e.Bookings.Create(ctx, req)
		require.NoError(t, err)

		referenced := errors.New("booking is still referenced")
		e.BookingRepo.DeleteErr = referenced
		assert.ErrorIs(t, e.Bookings.Purge(ctx, admin.ID, b.ID), referenced)

		stored, err := e.BookingRepo.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusApproved, stored.Status)
		item, _ := e.Equipment.GetItem(ctx, projector.ID)
		assert.Zero(t, item.AvailableQuantity, "a failed purge keeps the stock with the booking")
		lines, err := e.Equipment.ListLines(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Nil(t, lines[0].ReleasedAt)

		e.BookingRepo.DeleteErr = nil
		require.NoError(t, e.Bookings.Purge(ctx, admin.ID, b.ID))
		item, _ = e.Equipment.GetItem(ctx, projector.ID)
		assert.Equal(t, 2, item.AvailableQuantity)
	})
}

func TestNoDoubleBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("Concurrent submissions for one slot yield one booking", func(t *testing.T) {
		e := testfixtures.NewEngine()
		room := e.AddRoom("Room A", "meeting")

		var wg sync.WaitGroup
		errs := make([]error, 16)
		for i := range errs {
			member := e.AddUser(user.RoleUser)
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = e.Bookings.Create(ctx, request(member, room.ID, at(1, "10:00"), at(1, "11:00")))
			}()
		}
		wg.Wait()

		created := 0
		for _, err := range errs {
			if err == nil {
				created++
				continue
			}
			assert.ErrorIs(t, err, booking.ErrTimeConflict)
		}
		assert.Equal(t, 1, created)
	})

	t.Run("Random operation sequences keep active intervals disjoint", func(t *testing.T) {
		e := testfixtures.NewEngine()
		rooms := []string{e.AddRoom("Room A", "meeting").ID, e.AddRoom("Room B", "meeting").ID}
		admin := e.AddUser(user.RoleAdmin)
		members := []*user.User{e.AddUser(user.RoleUser), e.AddUser(user.RoleUser), admin}
		rng := rand.New(rand.NewPCG(42, 7))

		slot := func() (time.Time, time.Time) {
			day := 1 + rng.IntN(3)
			start := at(day, "08:00").Add(time.Duration(rng.IntN(36)) * 15 * time.Minute)
			return start, start.Add(time.Duration(1+rng.IntN(8)) * 15 * time.Minute)
		}

		var live []string
		for range 300 {
			switch op := rng.IntN(10); {
			case op < 6 || len(live) == 0:
				start, end := slot()
				b, err := e.Bookings.Create(ctx, request(members[rng.IntN(len(members))], rooms[rng.IntN(2)], start, end))
				if err == nil {
					live = append(live, b.ID)
				}
			case op < 8:
				start, end := slot()
				_, _ = e.Bookings.Reschedule(ctx, admin.ID, live[rng.IntN(len(live))], booking.RescheduleRequest{
					ResourceID: &rooms[rng.IntN(2)], StartTime: start, EndTime: end,
				})
			default:
				_, _ = e.Bookings.Cancel(ctx, admin.ID, live[rng.IntN(len(live))], "")
			}
			assertNoOverlap(t, e.BookingRepo.All())
		}
	})
}
