package equipment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/room-reservation-engine/internal/clock"
	"github.com/nekogravitycat/room-reservation-engine/internal/equipment"
	"github.com/nekogravitycat/room-reservation-engine/internal/testfixtures"
)

func newService() (equipment.Service, *testfixtures.EquipmentRepository) {
	repo := testfixtures.NewEquipmentRepository()
	return equipment.NewService(repo, clock.NewFake(testfixtures.Epoch), nil), repo
}

func available(t *testing.T, svc equipment.Service, id string) int {
	t.Helper()
	item, err := svc.GetItem(t.Context(), id)
	require.NoError(t, err)
	return item.AvailableQuantity
}

func TestStock(t *testing.T) {
	svc, repo := newService()
	projector := repo.AddItem("Projector", 3)

	t.Run("Over-reserve fails and leaves stock unchanged", func(t *testing.T) {
		ok, err := svc.Reserve(t.Context(), projector.ID, 4)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 3, available(t, svc, projector.ID))

		assert.ErrorIs(t, svc.CheckAvailable(t.Context(), projector.ID, 4), equipment.ErrInsufficientStock)
		assert.NoError(t, svc.CheckAvailable(t.Context(), projector.ID, 3))
	})

	t.Run("Reserve then release clamps at total", func(t *testing.T) {
		ok, err := svc.Reserve(t.Context(), projector.ID, 2)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, available(t, svc, projector.ID))

		require.NoError(t, svc.Release(t.Context(), projector.ID, 10))
		assert.Equal(t, 3, available(t, svc, projector.ID))
	})

	t.Run("Non-positive quantities are invalid", func(t *testing.T) {
		_, err := svc.Reserve(t.Context(), projector.ID, 0)
		assert.ErrorIs(t, err, equipment.ErrInvalidQuantity)
		assert.ErrorIs(t, svc.Release(t.Context(), projector.ID, -1), equipment.ErrInvalidQuantity)
		_, err = svc.CreateItem(t.Context(), "Speaker", 0)
		assert.ErrorIs(t, err, equipment.ErrInvalidQuantity)
		_, err = svc.CreateItem(t.Context(), " ", 2)
		assert.ErrorIs(t, err, equipment.ErrEmptyName)
	})

	t.Run("Unknown item", func(t *testing.T) {
		_, err := svc.GetItem(t.Context(), "missing")
		assert.ErrorIs(t, err, equipment.ErrItemNotFound)
	})
}

func TestLines(t *testing.T) {
	t.Run("Only approved lines hold stock", func(t *testing.T) {
		svc, repo := newService()
		mic := repo.AddItem("Microphone", 4)

		pending, err := svc.Attach(t.Context(), "booking-1", mic.ID, 2, false)
		require.NoError(t, err)
		assert.Equal(t, equipment.LineStatusPending, pending.Status)
		assert.Equal(t, 4, available(t, svc, mic.ID))

		approved, err := svc.Attach(t.Context(), "booking-2", mic.ID, 3, true)
		require.NoError(t, err)
		assert.Equal(t, equipment.LineStatusApproved, approved.Status)
		assert.Equal(t, 1, available(t, svc, mic.ID))

		_, err = svc.Attach(t.Context(), "booking-3", mic.ID, 2, true)
		assert.ErrorIs(t, err, equipment.ErrInsufficientStock)
		assert.Equal(t, 1, available(t, svc, mic.ID))
		lines, err := svc.ListLines(t.Context(), "booking-3")
		require.NoError(t, err)
		assert.Empty(t, lines, "failed attach leaves no line behind")
	})

	t.Run("Quantity changes move only the delta", func(t *testing.T) {
		svc, repo := newService()
		chairs := repo.AddItem("Chair", 10)

		line, err := svc.Attach(t.Context(), "booking-1", chairs.ID, 4, true)
		require.NoError(t, err)
		assert.Equal(t, 6, available(t, svc, chairs.ID))

		line, err = svc.ChangeQuantity(t.Context(), line.ID, 9)
		require.NoError(t, err)
		assert.Equal(t, 9, line.Quantity)
		assert.Equal(t, 1, available(t, svc, chairs.ID))

		_, err = svc.ChangeQuantity(t.Context(), line.ID, 11)
		assert.ErrorIs(t, err, equipment.ErrInsufficientStock)
		stored, err := svc.GetLine(t.Context(), line.ID)
		require.NoError(t, err)
		assert.Equal(t, 9, stored.Quantity)
		assert.Equal(t, 1, available(t, svc, chairs.ID))

		_, err = svc.ChangeQuantity(t.Context(), line.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 8, available(t, svc, chairs.ID))

		require.NoError(t, svc.Detach(t.Context(), line.ID))
		assert.Equal(t, 10, available(t, svc, chairs.ID))
		_, err = svc.GetLine(t.Context(), line.ID)
		assert.ErrorIs(t, err, equipment.ErrLineNotFound)
	})

	t.Run("Approving a booking rejects lines stock cannot cover", func(t *testing.T) {
		svc, repo := newService()
		laptop := repo.AddItem("Laptop", 2)
		cable := repo.AddItem("HDMI cable", 5)

		_, err := svc.Attach(t.Context(), "booking-1", laptop.ID, 3, false)
		require.NoError(t, err)
		_, err = svc.Attach(t.Context(), "booking-1", cable.ID, 2, false)
		require.NoError(t, err)

		lines, err := svc.ApproveForBooking(t.Context(), "booking-1")
		require.NoError(t, err)
		require.Len(t, lines, 2)

		statuses := map[string]equipment.LineStatus{}
		for _, l := range lines {
			statuses[l.ItemID] = l.Status
		}
		assert.Equal(t, equipment.LineStatusRejected, statuses[laptop.ID])
		assert.Equal(t, equipment.LineStatusApproved, statuses[cable.ID])
		assert.Equal(t, 2, available(t, svc, laptop.ID))
		assert.Equal(t, 3, available(t, svc, cable.ID))
	})

	t.Run("Release for a booking returns stock once", func(t *testing.T) {
		svc, repo := newService()
		board := repo.AddItem("Whiteboard", 2)

		_, err := svc.Attach(t.Context(), "booking-1", board.ID, 2, true)
		require.NoError(t, err)
		assert.Zero(t, available(t, svc, board.ID))

		require.NoError(t, svc.ReleaseForBooking(t.Context(), "booking-1"))
		assert.Equal(t, 2, available(t, svc, board.ID))

		// A second release is a no-op, even if stock was taken by someone else meanwhile.
		ok, err := svc.Reserve(t.Context(), board.ID, 1)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, svc.ReleaseForBooking(t.Context(), "booking-1"))
		assert.Equal(t, 1, available(t, svc, board.ID))

		lines, err := svc.ListLines(t.Context(), "booking-1")
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.NotNil(t, lines[0].ReleasedAt)
	})

	t.Run("Decided lines cannot be decided again", func(t *testing.T) {
		svc, repo := newService()
		cam := repo.AddItem("Camera", 1)

		line, err := svc.Attach(t.Context(), "booking-1", cam.ID, 1, false)
		require.NoError(t, err)
		_, err = svc.RejectLine(t.Context(), line.ID)
		require.NoError(t, err)

		_, err = svc.ApproveLine(t.Context(), line.ID)
		assert.ErrorIs(t, err, equipment.ErrLineNotPending)
		_, err = svc.ChangeQuantity(t.Context(), line.ID, 1)
		assert.ErrorIs(t, err, equipment.ErrLineRejected)
		assert.Equal(t, 1, available(t, svc, cam.ID))
	})
}
