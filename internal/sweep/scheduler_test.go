package sweep

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	s := New(nil)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Register("waitlist", time.Minute, noop))
	assert.ErrorIs(t, s.Register("waitlist", time.Minute, noop), ErrDuplicateTask)
	assert.ErrorIs(t, s.Register("bad", 0, noop), ErrInvalidInterval)
	require.NoError(t, s.Register("series", time.Hour, noop))
	assert.Equal(t, []string{"waitlist", "series"}, s.Names())

	assert.ErrorIs(t, s.RunOnce(t.Context(), "nope"), ErrUnknownTask)
}

func TestRunOnce(t *testing.T) {
	t.Run("A task never overlaps with itself", func(t *testing.T) {
		s := New(nil)
		entered := make(chan struct{})
		release := make(chan struct{})
		require.NoError(t, s.Register("slow", time.Hour, func(context.Context) error {
			close(entered)
			<-release
			return nil
		}))

		done := make(chan error, 1)
		go func() { done <- s.RunOnce(t.Context(), "slow") }()
		<-entered

		assert.ErrorIs(t, s.RunOnce(t.Context(), "slow"), ErrAlreadyRunning)

		close(release)
		require.NoError(t, <-done)
	})

	t.Run("Errors and panics are returned", func(t *testing.T) {
		s := New(nil)
		boom := errors.New("boom")
		require.NoError(t, s.Register("fails", time.Hour, func(context.Context) error { return boom }))
		require.NoError(t, s.Register("panics", time.Hour, func(context.Context) error { panic("bad row") }))

		assert.ErrorIs(t, s.RunOnce(t.Context(), "fails"), boom)
		err := s.RunOnce(t.Context(), "panics")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad row")

		// The running flag is cleared after a panic.
		assert.NotErrorIs(t, s.RunOnce(t.Context(), "panics"), ErrAlreadyRunning)
	})
}

func TestStartStop(t *testing.T) {
	s := New(nil)
	var runs atomic.Int32
	require.NoError(t, s.Register("tick", 5*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	s.Start(t.Context())
	assert.ErrorIs(t, s.Register("late", time.Minute, func(context.Context) error { return nil }), ErrStarted)

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)

	s.Stop()
	stopped := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load(), "no runs after Stop returns")

	// Stop is idempotent.
	s.Stop()
}
