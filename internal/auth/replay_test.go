// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/irongate/internal/platform/constants"
)

/*
TestMemoryReplayCache_Remember verifies freshness semantics: first sight of a
(user, request-id) pair is fresh, an identical pair inside the window is not,
and pairs differing in either component never collide.
*/
func TestMemoryReplayCache_Remember(t *testing.T) {
	cache := NewMemoryReplayCache()
	ctx := context.Background()

	fresh, err := cache.Remember(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = cache.Remember(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.False(t, fresh)

	// Same request-id from a different user is a different pair.
	fresh, err = cache.Remember(ctx, "u2", "r1")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = cache.Remember(ctx, "u1", "r2")
	require.NoError(t, err)
	assert.True(t, fresh)
}

/*
TestMemoryReplayCache_WindowExpiry verifies a pair becomes fresh again once
the replay window has elapsed, and that stale entries are evicted.
*/
func TestMemoryReplayCache_WindowExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryReplayCache()
	cache.nowFunc = func() time.Time { return now }

	fresh, err := cache.Remember(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.True(t, fresh)

	// Just inside the window: still a replay.
	now = now.Add(constants.ReplayWindow - time.Second)
	fresh, err = cache.Remember(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.False(t, fresh)

	// Past the window: fresh again, and the sweep drops the stale entry.
	now = now.Add(2 * time.Second)
	fresh, err = cache.Remember(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Len(t, cache.seen, 1)
}
