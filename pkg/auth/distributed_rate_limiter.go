package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the window counter and sets its expiry on
// first use, atomically
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// DistributedRateLimiter implements fixed-window rate limiting with Redis as
// the state store, so every API instance shares the same counters
type DistributedRateLimiter struct {
	client    redis.UniversalClient
	limit     int
	window    time.Duration
	keyPrefix string
	now       func() time.Time
}

// NewDistributedRateLimiter creates a limiter allowing limit requests per window
func NewDistributedRateLimiter(client redis.UniversalClient, limit int, window time.Duration, keyPrefix string) *DistributedRateLimiter {
	return &DistributedRateLimiter{
		client:    client,
		limit:     limit,
		window:    window,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

func (r *DistributedRateLimiter) windowKey(key string) string {
	windowStart := r.now().Truncate(r.window)
	return fmt.Sprintf("ratelimit:%s:%s:%d", r.keyPrefix, key, windowStart.Unix())
}

// Allow checks if a request is allowed under the rate limit. Redis errors
// fail open and are returned alongside true.
func (r *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := fixedWindowScript.Run(ctx, r.client, []string{r.windowKey(key)}, r.window.Milliseconds()).Int()
	if err != nil {
		return true, fmt.Errorf("rate limiter error (failing open): %w", err)
	}
	return count <= r.limit, nil
}

// Remaining returns the number of requests left in the current window
func (r *DistributedRateLimiter) Remaining(ctx context.Context, key string) (int, error) {
	count, err := r.client.Get(ctx, r.windowKey(key)).Int()
	if err == redis.Nil {
		return r.limit, nil
	}
	if err != nil {
		return r.limit, err
	}
	return max(r.limit-count, 0), nil
}

// Reset clears the current window for a key
func (r *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.windowKey(key)).Err()
}
