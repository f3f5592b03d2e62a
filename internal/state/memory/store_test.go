package memory

import (
	"context"
	"testing"
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusyFlagAcquireRelease(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	ok, err := s.TryAcquireBusy(ctx, "tenant-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second acquisition must be refused while held.
	ok, err = s.TryAcquireBusy(ctx, "tenant-a", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// A different tenant is unaffected.
	ok, err = s.TryAcquireBusy(ctx, "tenant-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.ReleaseBusy(ctx, "tenant-a"))

	busy, err := s.IsBusy(ctx, "tenant-a")
	require.NoError(t, err)
	assert.False(t, busy)

	ok, err = s.TryAcquireBusy(ctx, "tenant-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTaskEntryRoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, found, err := s.GetTaskEntry(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	entry := &state.TaskEntry{Status: "resolved", Text: "hello"}
	require.NoError(t, s.SetTaskEntry(ctx, "t1", entry, time.Minute))

	got, found, err := s.GetTaskEntry(ctx, "t1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "resolved", got.Status)
	assert.Equal(t, "hello", got.Text)
}
