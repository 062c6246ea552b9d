package ai

import (
	"context"

	"golang.org/x/time/rate"

	"consilium/pkg/errors"
)

// LocalLimiter rate limits requests within a single process using a
// token bucket.
type LocalLimiter struct {
	limiter      *rate.Limiter
	provider     ProviderName
	reqPerMinute float64
}

var _ RateLimiter = (*LocalLimiter)(nil)

// NewLocalLimiter creates a token bucket limiter.
// reqPerMinute: maximum requests per minute (e.g. 500 for OpenAI Tier 1).
// burst defaults to 10% of the per-minute rate.
func NewLocalLimiter(provider ProviderName, reqPerMinute float64, burst int) *LocalLimiter {
	if burst <= 0 {
		burst = int(reqPerMinute / 10)
		if burst < 1 {
			burst = 1
		}
	}

	return &LocalLimiter{
		limiter:      rate.NewLimiter(rate.Limit(reqPerMinute/60.0), burst),
		provider:     provider,
		reqPerMinute: reqPerMinute,
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (l *LocalLimiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limiter wait cancelled for provider %s", l.provider)
	}
	return nil
}

// Allow checks if a request can proceed without blocking.
func (l *LocalLimiter) Allow() bool {
	return l.limiter.Allow()
}

// Limit returns the configured requests per minute.
func (l *LocalLimiter) Limit() float64 {
	return l.reqPerMinute
}

// NoOpLimiter never blocks. Used in tests and when limiting is disabled.
type NoOpLimiter struct{}

var _ RateLimiter = (*NoOpLimiter)(nil)

// NewNoOpLimiter creates a limiter that always allows.
func NewNoOpLimiter() *NoOpLimiter { return &NoOpLimiter{} }

func (l *NoOpLimiter) Wait(_ context.Context) error { return nil }
func (l *NoOpLimiter) Allow() bool                  { return true }
func (l *NoOpLimiter) Limit() float64               { return 0 }
