package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"consilium/pkg/errors"
)

// RedisRateLimiter implements distributed token bucket rate limiting via
// Redis so multiple instances share one provider quota.
type RedisRateLimiter struct {
	client      *redis.Client
	provider    ProviderName
	rate        float64 // requests per second
	burst       int
	key         string
	tokenScript *redis.Script
}

var _ RateLimiter = (*RedisRateLimiter)(nil)

// Lua script for the token bucket (atomic).
// KEYS[1] = token bucket key
// ARGV[1] = rate (tokens per second)
// ARGV[2] = burst (max tokens)
// ARGV[3] = current timestamp
// Returns: 1 if allowed, 0 if denied
const luaTokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call('HMGET', key, 'tokens', 'last_update')
local tokens = tonumber(data[1])
local last_update = tonumber(data[2])

if not tokens then
    tokens = burst
    last_update = now
end

local elapsed = now - last_update
tokens = math.min(burst, tokens + elapsed * rate)

if tokens >= 1.0 then
    tokens = tokens - 1.0
    redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
    redis.call('EXPIRE', key, 3600)
    return 1
else
    redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
    redis.call('EXPIRE', key, 3600)
    return 0
end
`

// NewRedisRateLimiter creates a Redis-backed rate limiter.
func NewRedisRateLimiter(client *redis.Client, provider ProviderName, reqPerMinute float64, burst int) *RedisRateLimiter {
	if burst <= 0 {
		burst = int(reqPerMinute / 10)
		if burst < 1 {
			burst = 1
		}
	}

	return &RedisRateLimiter{
		client:      client,
		provider:    provider,
		rate:        reqPerMinute / 60.0,
		burst:       burst,
		key:         fmt.Sprintf("rate_limit:ai:%s", provider),
		tokenScript: redis.NewScript(luaTokenBucketScript),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (l *RedisRateLimiter) Wait(ctx context.Context) error {
	for {
		allowed, err := l.tryAcquire(ctx)
		if err != nil {
			return errors.Wrapf(err, "redis rate limiter error for provider %s", l.provider)
		}
		if allowed {
			return nil
		}

		waitTime := time.Duration(float64(time.Second) / l.rate)
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "rate limiter wait cancelled for provider %s", l.provider)
		case <-time.After(waitTime):
		}
	}
}

// Allow checks if a request can proceed without blocking.
func (l *RedisRateLimiter) Allow() bool {
	allowed, err := l.tryAcquire(context.Background())
	return err == nil && allowed
}

// Limit returns the configured requests per minute.
func (l *RedisRateLimiter) Limit() float64 {
	return l.rate * 60.0
}

func (l *RedisRateLimiter) tryAcquire(ctx context.Context) (bool, error) {
	now := float64(time.Now().UnixMilli()) / 1000.0
	res, err := l.tokenScript.Run(ctx, l.client, []string{l.key}, l.rate, l.burst, now).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
