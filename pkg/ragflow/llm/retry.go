package llm

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig configures retries of transient provider failures.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	MaxAttempts int

	// InitialBackoff is the starting backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff between attempts.
	MaxBackoff time.Duration

	// BackoffFactor is the multiplier applied to backoff after each attempt.
	BackoffFactor float64

	// Jitter is the random jitter factor (0.0-1.0).
	Jitter float64
}

// DefaultRetry retries rate limits and server errors twice.
var DefaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     8 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// NoRetry disables retries.
var NoRetry = RetryConfig{MaxAttempts: 1}

// RetryingClient retries Complete calls that fail with a retryable Error.
type RetryingClient struct {
	next Client
	cfg  RetryConfig
}

var _ Client = (*RetryingClient)(nil)

// WithRetry wraps c so that retryable failures are attempted again.
func WithRetry(c Client, cfg RetryConfig) *RetryingClient {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryingClient{next: c, cfg: cfg}
}

// RetryFactory wraps every Client produced by f with WithRetry.
func RetryFactory(f ClientFactory, cfg RetryConfig) ClientFactory {
	return func(provider, apiKey string) (Client, error) {
		c, err := f(provider, apiKey)
		if err != nil {
			return nil, err
		}
		return WithRetry(c, cfg), nil
	}
}

// Complete implements Client.
func (r *RetryingClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return retry(ctx, r.cfg, func(ctx context.Context) (*CompletionResponse, error) {
		return r.next.Complete(ctx, req)
	})
}

func retry[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	backoff := cfg.InitialBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil || !IsRetryable(err) || attempt >= cfg.MaxAttempts {
			return result, err
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(jittered(backoff, cfg.Jitter)):
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
		if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
}

// jittered returns base +/- (base * jitter * random).
func jittered(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 || base <= 0 {
		return base
	}
	return time.Duration(float64(base) + float64(base)*jitter*(rand.Float64()*2-1))
}
