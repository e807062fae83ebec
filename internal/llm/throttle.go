package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// ThrottledProvider wraps a Provider with a client-side rate limit so
// batch runs stay inside API quotas.
type ThrottledProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewThrottledProvider wraps p with a limit of rps requests per second
func NewThrottledProvider(p Provider, rps float64) *ThrottledProvider {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &ThrottledProvider{
		inner:   p,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name returns the wrapped provider's name
func (p *ThrottledProvider) Name() string {
	return p.inner.Name()
}

// IsAvailable defers to the wrapped provider without consuming a token
func (p *ThrottledProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

// Generate waits for a rate-limit token, then defers to the wrapped provider
func (p *ThrottledProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return p.inner.Generate(ctx, prompt)
}
