package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// RateLimiter is the per-host throttle contract: block until the next
// request may go out, and retune the delay window when a host pushes back.
type RateLimiter interface {
	Wait(ctx context.Context) error
	SetDelay(min, max time.Duration)
}

var _ RateLimiter = (*SimpleRateLimiter)(nil)

// SimpleRateLimiter enforces a randomized minimum gap between requests to the
// same storefront. Jitter keeps the request pattern from looking mechanical.
type SimpleRateLimiter struct {
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	mu         sync.Mutex
	jitter     bool
}

func NewSimpleRateLimiter(minDelay, maxDelay time.Duration) *SimpleRateLimiter {
	return &SimpleRateLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		jitter:   true,
	}
}

func (r *SimpleRateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.lastAction)
	delay := r.calculateDelay()

	if elapsed < delay {
		waitTime := delay - elapsed

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}

	r.lastAction = time.Now()
	return nil
}

func (r *SimpleRateLimiter) SetDelay(min, max time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.minDelay = min
	r.maxDelay = max
}

func (r *SimpleRateLimiter) calculateDelay() time.Duration {
	if !r.jitter || r.minDelay >= r.maxDelay {
		return r.minDelay
	}

	delta := r.maxDelay - r.minDelay
	jitter := time.Duration(rand.Int63n(int64(delta)))
	return r.minDelay + jitter
}

// PerHostRateLimiter keys a SimpleRateLimiter by hostname so that scraping
// one store never throttles another.
type PerHostRateLimiter struct {
	minDelay time.Duration
	maxDelay time.Duration
	hosts    map[string]RateLimiter
	mu       sync.Mutex
}

func NewPerHostRateLimiter(minDelay, maxDelay time.Duration) *PerHostRateLimiter {
	return &PerHostRateLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		hosts:    make(map[string]RateLimiter),
	}
}

func (p *PerHostRateLimiter) WaitHost(ctx context.Context, host string) error {
	return p.limiterFor(host).Wait(ctx)
}

// SlowHost widens one host's delay window after server pushback. Repeated
// calls do not compound.
func (p *PerHostRateLimiter) SlowHost(host string) {
	p.limiterFor(host).SetDelay(p.minDelay*2, p.maxDelay*2)
}

func (p *PerHostRateLimiter) limiterFor(host string) RateLimiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	limiter, ok := p.hosts[host]
	if !ok {
		limiter = NewSimpleRateLimiter(p.minDelay, p.maxDelay)
		p.hosts[host] = limiter
	}
	return limiter
}
