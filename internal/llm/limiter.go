package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited wraps a TextGenerator with a client-side token bucket so a
// chatty user cannot exhaust the provider quota for everyone else.
type RateLimited struct {
	next    TextGenerator
	limiter *rate.Limiter
}

// NewRateLimited allows perMinute calls per minute with a burst of burst.
// perMinute <= 0 returns next unchanged.
func NewRateLimited(next TextGenerator, perMinute, burst int) TextGenerator {
	if perMinute <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
	}
}

// Complete waits for a token, bounded by ctx, then delegates.
func (r *RateLimited) Complete(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limit: %w", err)
	}
	return r.next.Complete(ctx, prompt)
}

// GetModel returns the wrapped client's model.
func (r *RateLimited) GetModel() string {
	return r.next.GetModel()
}

var _ TextGenerator = (*RateLimited)(nil)
