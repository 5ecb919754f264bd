package resource_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/room-reservation-engine/internal/resource"
	"github.com/nekogravitycat/room-reservation-engine/internal/testfixtures"
)

func TestResourceService(t *testing.T) {
	ctx := context.Background()
	svc := resource.NewService(testfixtures.NewResourceRepository())

	t.Run("Create validates input", func(t *testing.T) {
		_, err := svc.Create(ctx, resource.CreateRequest{Name: "  ", Capacity: 4})
		assert.ErrorIs(t, err, resource.ErrEmptyName)

		_, err = svc.Create(ctx, resource.CreateRequest{Name: "Room A", Capacity: 0})
		assert.ErrorIs(t, err, resource.ErrInvalidCapacity)
	})

	t.Run("Inactive rooms are not bookable", func(t *testing.T) {
		res, err := svc.Create(ctx, resource.CreateRequest{Name: "Room B", Category: "meeting", Capacity: 8})
		require.NoError(t, err)

		got, err := svc.GetBookable(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, "Room B", got.Name)

		off := false
		_, err = svc.Update(ctx, res.ID, resource.UpdateRequest{IsActive: &off})
		require.NoError(t, err)

		_, err = svc.GetBookable(ctx, res.ID)
		assert.ErrorIs(t, err, resource.ErrInactive)

		still, err := svc.GetByID(ctx, res.ID)
		require.NoError(t, err)
		assert.False(t, still.IsActive)
	})

	t.Run("Unknown IDs are not found", func(t *testing.T) {
		_, err := svc.GetBookable(ctx, "nope")
		assert.ErrorIs(t, err, resource.ErrNotFound)
	})
}
