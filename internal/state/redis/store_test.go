package redis

import (
	"context"
	"testing"
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/state"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb), mr
}

func TestBusyFlagAcquireRelease(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ok, err := s.TryAcquireBusy(ctx, "tenant-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.TryAcquireBusy(ctx, "tenant-a", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.ReleaseBusy(ctx, "tenant-a"))

	busy, err := s.IsBusy(ctx, "tenant-a")
	require.NoError(t, err)
	assert.False(t, busy)
}

func TestBusyFlagExpires(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	ok, err := s.TryAcquireBusy(ctx, "tenant-a", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// A crashed holder's flag must not wedge the tenant past the ttl.
	mr.FastForward(6 * time.Second)

	ok, err = s.TryAcquireBusy(ctx, "tenant-a", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTaskEntryRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, found, err := s.GetTaskEntry(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	entry := &state.TaskEntry{Status: "rejected", Error: "upstream unavailable"}
	require.NoError(t, s.SetTaskEntry(ctx, "t1", entry, time.Minute))

	got, found, err := s.GetTaskEntry(ctx, "t1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "rejected", got.Status)
	assert.Equal(t, "upstream unavailable", got.Error)
}
