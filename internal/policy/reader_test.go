package policy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReader struct {
	calls int
	cfg   Configuration
}

func (c *countingReader) Current(context.Context) (Configuration, error) {
	c.calls++
	return c.cfg, nil
}

type sourceFunc func(cfg *Configuration) error

func (f sourceFunc) Apply(_ context.Context, cfg *Configuration) error { return f(cfg) }

func TestFileSource(t *testing.T) {
	ctx := context.Background()

	t.Run("YAML overlays only the keys present", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
allowed_start_time: "09:00"
weekly_limit: 4
allowed_weekdays: [1, 2, 3, 4, 5]
role_categories:
  user: [meeting]
`), 0o600))

		cfg, err := Layered(FileSource{Path: path}).Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, "09:00", cfg.AllowedStartTime)
		assert.Equal(t, "18:00", cfg.AllowedEndTime)
		require.NotNil(t, cfg.WeeklyLimit)
		assert.Equal(t, 4, *cfg.WeeklyLimit)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, cfg.AllowedWeekdays)
		assert.Equal(t, []string{"meeting"}, cfg.RoleCategories["user"])
	})

	t.Run("Missing file yields defaults", func(t *testing.T) {
		cfg, err := Layered(FileSource{Path: filepath.Join(t.TempDir(), "nope.yaml")}).Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, Defaults(), cfg)
	})

	t.Run("Broken YAML is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("weekly_limit: [oops"), 0o600))
		_, err := Layered(FileSource{Path: path}).Current(ctx)
		assert.Error(t, err)
	})
}

func TestLayered(t *testing.T) {
	ctx := context.Background()
	first := sourceFunc(func(cfg *Configuration) error { cfg.Timezone = "Asia/Bangkok"; cfg.WeeklyLimit = Int(2); return nil })
	second := sourceFunc(func(cfg *Configuration) error { cfg.WeeklyLimit = Int(5); return nil })

	cfg, err := Layered(first, second).Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Bangkok", cfg.Timezone)
	assert.Equal(t, 5, *cfg.WeeklyLimit)

	boom := errors.New("db down")
	_, err = Layered(sourceFunc(func(*Configuration) error { return boom })).Current(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestCachedReader(t *testing.T) {
	ctx := context.Background()
	next := &countingReader{cfg: Defaults()}
	cached := NewCachedReader(next, time.Minute)

	for range 3 {
		_, err := cached.Current(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, next.calls)

	cached.Invalidate()
	_, err := cached.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedReaderExpires(t *testing.T) {
	ctx := context.Background()
	next := &countingReader{cfg: Defaults()}
	cached := NewCachedReader(next, 20*time.Millisecond)

	_, _ = cached.Current(ctx)
	time.Sleep(60 * time.Millisecond)
	_, _ = cached.Current(ctx)
	assert.Equal(t, 2, next.calls)
}
