package lookup

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultRequestDelay spaces lookups out the way TVmaze asks clients to
const DefaultRequestDelay = 400 * time.Millisecond

// Throttled wraps a Provider with a request rate limit and a bounded retry
// budget for retryable transport failures.
type Throttled struct {
	next    Provider
	limiter *rate.Limiter
	retries int
}

// NewThrottled allows one request per delay (no limit when delay <= 0) and
// retries each failed request at most retries times.
func NewThrottled(next Provider, delay time.Duration, retries int) *Throttled {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	if retries < 0 {
		retries = 0
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
		retries: retries,
	}
}

// Search implements Provider
func (t *Throttled) Search(ctx context.Context, name string) ([]ShowCandidate, error) {
	return withRetry(ctx, t, "search "+name, func(ctx context.Context) ([]ShowCandidate, error) {
		return t.next.Search(ctx, name)
	})
}

// Episodes implements Provider
func (t *Throttled) Episodes(ctx context.Context, showID string) ([]Episode, error) {
	return withRetry(ctx, t, "episodes "+showID, func(ctx context.Context) ([]Episode, error) {
		return t.next.Episodes(ctx, showID)
	})
}

func withRetry[T any](ctx context.Context, t *Throttled, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= t.retries; attempt++ {
		if err := t.limiter.Wait(ctx); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, fmt.Errorf("%s: %w", op, err)
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsRetryable(err) {
			return zero, err
		}
		if attempt < t.retries {
			log.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("lookup failed, retrying")
		}
	}

	return zero, lastErr
}
