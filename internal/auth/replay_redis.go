// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/irongate/internal/platform/constants"
)

// RedisReplayCache is the multi-instance [ReplayCache]. SETNX with a TTL
// gives the same first-writer-wins semantics across replicas.
type RedisReplayCache struct {
	client *redis.Client
}

// NewRedisReplayCache creates a Redis-backed replay cache.
func NewRedisReplayCache(client *redis.Client) *RedisReplayCache {
	return &RedisReplayCache{client: client}
}

// Remember implements [ReplayCache].
func (cache *RedisReplayCache) Remember(ctx context.Context, uid, requestID string) (bool, error) {
	key := constants.RedisPrefixReplay + uid + ":" + requestID

	fresh, err := cache.client.SetNX(ctx, key, 1, constants.ReplayWindow).Result()
	if err != nil {
		return false, fmt.Errorf("auth_replay_setnx_failed: %w", err)
	}
	return fresh, nil
}
