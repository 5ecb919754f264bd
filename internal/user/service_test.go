package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/room-reservation-engine/internal/testfixtures"
	"github.com/nekogravitycat/room-reservation-engine/internal/user"
)

func TestUserService(t *testing.T) {
	ctx := context.Background()
	repo := testfixtures.NewUserRepository()
	svc := user.NewService(repo)

	t.Run("Create defaults role and normalizes email", func(t *testing.T) {
		u, err := svc.Create(ctx, user.CreateRequest{Email: "  Alice@Example.com "})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", u.Email)
		assert.Equal(t, user.RoleUser, u.Role)
		assert.True(t, u.IsActive)
		assert.NotEmpty(t, u.ID)
	})

	t.Run("Create rejects duplicates and bad roles", func(t *testing.T) {
		_, err := svc.Create(ctx, user.CreateRequest{Email: "alice@example.com"})
		assert.ErrorIs(t, err, user.ErrEmailAlreadyUsed)

		_, err = svc.Create(ctx, user.CreateRequest{Email: "bob@example.com", Role: "janitor"})
		assert.ErrorIs(t, err, user.ErrInvalidRole)

		_, err = svc.Create(ctx, user.CreateRequest{Email: " "})
		assert.ErrorIs(t, err, user.ErrEmailRequired)
	})

	t.Run("GetActive refuses deactivated users", func(t *testing.T) {
		u := repo.Add(&user.User{Email: "gone@example.com", Role: user.RoleUser, IsActive: false})
		_, err := svc.GetActive(ctx, u.ID)
		assert.ErrorIs(t, err, user.ErrInactive)

		_, err = svc.GetActive(ctx, "missing")
		assert.ErrorIs(t, err, user.ErrNotFound)
	})

	t.Run("Only admin is elevated", func(t *testing.T) {
		assert.True(t, user.RoleAdmin.IsElevated())
		assert.False(t, user.RoleStaff.IsElevated())
		assert.True(t, (&user.User{Role: user.RoleAdmin}).IsAdmin())
		assert.False(t, (*user.User)(nil).IsAdmin())
	})
}
