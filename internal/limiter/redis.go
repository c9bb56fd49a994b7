package limiter

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window limiter keeping counters and block markers in Redis.
// Keys expire on their own so no cleanup job is needed.
type Redis struct {
	rdb    redis.UniversalClient
	policy Policy
	prefix string
}

// NewRedis creates a Redis-backed limiter. Keys are namespaced by prefix.
func NewRedis(rdb redis.UniversalClient, p Policy, prefix string) *Redis {
	if prefix == "" {
		prefix = "auth:limiter"
	}
	return &Redis{rdb: rdb, policy: p, prefix: prefix}
}

func (l *Redis) failKey(email string, ipHash []byte) string {
	return fmt.Sprintf("%s:fail:%s:%s", l.prefix, email, hex.EncodeToString(ipHash))
}

func (l *Redis) blockKey(email string, ipHash []byte) string {
	return fmt.Sprintf("%s:block:%s:%s", l.prefix, email, hex.EncodeToString(ipHash))
}

// Allow reports whether sign-in is allowed; a live block key denies with its remaining TTL.
func (l *Redis) Allow(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	ttl, err := l.rdb.PTTL(ctx, l.blockKey(email, ipHash)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("limiter: pttl: %w", err)
	}
	// -2 means no key, -1 means no expiry; neither is a live block.
	if ttl > 0 {
		return false, ttl, nil
	}
	return true, 0, nil
}

// Success clears both the failure counter and any block.
func (l *Redis) Success(ctx context.Context, email string, ipHash []byte) error {
	if err := l.rdb.Del(ctx, l.failKey(email, ipHash), l.blockKey(email, ipHash)).Err(); err != nil {
		return fmt.Errorf("limiter: del: %w", err)
	}
	return nil
}

// Failure increments the window counter and places a block once MaxFails is reached.
func (l *Redis) Failure(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	key := l.failKey(email, ipHash)
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("limiter: incr: %w", err)
	}
	// Fixed window: the first hit starts the clock.
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.policy.Window).Err(); err != nil {
			return false, 0, fmt.Errorf("limiter: expire: %w", err)
		}
	}
	if count < int64(l.policy.MaxFails) {
		return false, 0, nil
	}

	_, err = l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, l.blockKey(email, ipHash), 1, l.policy.BlockFor)
		p.Del(ctx, key)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("limiter: block: %w", err)
	}
	return true, l.policy.BlockFor, nil
}
