package ai

import (
	"context"
	"time"

	"consilium/pkg/errors"
	"consilium/pkg/logger"
)

// RetryingProvider wraps a Provider with bounded retry and exponential
// backoff. Only transient failures are retried; anything else surfaces
// immediately.
type RetryingProvider struct {
	inner    Provider
	attempts int
	backoff  time.Duration
	log      *logger.Logger
}

var _ Provider = (*RetryingProvider)(nil)

// NewRetryingProvider wraps inner with up to attempts tries. The backoff
// doubles after every failed attempt.
func NewRetryingProvider(inner Provider, attempts int, backoff time.Duration) *RetryingProvider {
	if attempts <= 0 {
		attempts = 1
	}
	return &RetryingProvider{
		inner:    inner,
		attempts: attempts,
		backoff:  backoff,
		log:      logger.Get().With("component", "ai_retry", "provider", inner.Name()),
	}
}

// Name returns the wrapped provider name.
func (p *RetryingProvider) Name() ProviderName { return p.inner.Name() }

// Complete retries the wrapped provider on transient failures.
func (p *RetryingProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var lastErr error
	backoff := p.backoff

	for attempt := 1; attempt <= p.attempts; attempt++ {
		resp, err := p.inner.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !errors.Is(err, errors.ErrProviderTransient) && !errors.Is(err, errors.ErrRateLimitExceeded) {
			return nil, err
		}

		if attempt == p.attempts {
			break
		}

		p.log.Warnf("attempt %d/%d failed: %v, retrying in %v", attempt, p.attempts, err, backoff)
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "retry cancelled")
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, errors.Wrapf(errors.ErrRetriesExhausted, "after %d attempts: %v", p.attempts, lastErr)
}
