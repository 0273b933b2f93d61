package llm

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"
)

// RateLimitedProvider shares one token bucket across every in-flight
// question so a burst of requests cannot exceed the backend quota.
type RateLimitedProvider struct {
	next    LLMProvider
	limiter *rate.Limiter
}

var _ LLMProvider = &RateLimitedProvider{}

func NewRateLimitedProvider(next LLMProvider, requestsPerSecond float64) *RateLimitedProvider {
	burst := int(math.Ceil(requestsPerSecond))
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedProvider{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (p *RateLimitedProvider) Chat(ctx context.Context, history []Message, opts ...Option) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return p.next.Chat(ctx, history, opts...)
}

func (p *RateLimitedProvider) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return p.next.Generate(ctx, prompt, opts...)
}
