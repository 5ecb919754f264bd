package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	sentinel := New(KindPolicy, "booking violates policy")

	t.Run("Copies with reasons match the sentinel", func(t *testing.T) {
		err := sentinel.WithReasons("outside hours", "weekly limit reached")
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, "booking violates policy: outside hours; weekly limit reached", err.Error())
		assert.Empty(t, sentinel.Reasons, "sentinel must not be mutated")
	})

	t.Run("Wrapped errors keep their kind", func(t *testing.T) {
		err := fmt.Errorf("create booking: %w", sentinel)
		assert.Equal(t, KindPolicy, KindOf(err))
		assert.True(t, IsKind(err, KindPolicy))
		assert.False(t, IsKind(err, KindConflict))
	})

	t.Run("Different messages do not match", func(t *testing.T) {
		other := New(KindPolicy, "something else")
		assert.False(t, errors.Is(other, sentinel))
	})

	t.Run("Plain errors are internal", func(t *testing.T) {
		assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
		assert.False(t, IsKind(nil, KindInternal))
	})

	t.Run("Kinds map to HTTP statuses", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, New(KindValidation, "x").Code)
		assert.Equal(t, http.StatusUnprocessableEntity, New(KindPolicy, "x").Code)
		assert.Equal(t, http.StatusConflict, New(KindConflict, "x").Code)
		assert.Equal(t, http.StatusConflict, New(KindTransition, "x").Code)
		assert.Equal(t, http.StatusForbidden, New(KindUnauthorized, "x").Code)
		assert.Equal(t, http.StatusNotFound, New(KindNotFound, "x").Code)
		assert.Equal(t, http.StatusInternalServerError, Wrap(errors.New("db"), KindInternal, "x").Code)
	})
}
