// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/irongate/internal/platform/constants"
)

// # Replay Protection

// ReplayCache remembers (user, request-id) pairs for a bounded window so a
// captured signature cannot be replayed verbatim.
type ReplayCache interface {
	// Remember records the pair and reports whether it was fresh. A false
	// return means the exact pair was already seen inside the window.
	Remember(ctx context.Context, uid, requestID string) (bool, error)
}

// MemoryReplayCache is the single-process [ReplayCache]. Entries expire
// after [constants.ReplayWindow]; eviction piggybacks on writes.
type MemoryReplayCache struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	lastGC  time.Time
	nowFunc func() time.Time
}

// NewMemoryReplayCache creates an empty in-process replay cache.
func NewMemoryReplayCache() *MemoryReplayCache {
	return &MemoryReplayCache{
		seen:    make(map[string]time.Time),
		nowFunc: time.Now,
	}
}

// Remember implements [ReplayCache].
func (cache *MemoryReplayCache) Remember(_ context.Context, uid, requestID string) (bool, error) {
	key := uid + ":" + requestID
	now := cache.nowFunc()

	cache.mu.Lock()
	defer cache.mu.Unlock()

	if seenAt, ok := cache.seen[key]; ok && now.Sub(seenAt) < constants.ReplayWindow {
		return false, nil
	}
	cache.seen[key] = now

	// Amortized sweep: at most one full scan per window.
	if now.Sub(cache.lastGC) >= constants.ReplayWindow {
		for k, seenAt := range cache.seen {
			if now.Sub(seenAt) >= constants.ReplayWindow {
				delete(cache.seen, k)
			}
		}
		cache.lastGC = now
	}

	return true, nil
}
