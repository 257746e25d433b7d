package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerHostRateLimiter_KeysLimitersByHost(t *testing.T) {
	p := NewPerHostRateLimiter(0, 0)

	require.NoError(t, p.WaitHost(context.Background(), "a.example.com"))
	require.NoError(t, p.WaitHost(context.Background(), "b.example.com"))

	assert.Len(t, p.hosts, 2)
	assert.NotSame(t, p.hosts["a.example.com"], p.hosts["b.example.com"])
}

func TestPerHostRateLimiter_SlowHost(t *testing.T) {
	p := NewPerHostRateLimiter(100*time.Millisecond, 200*time.Millisecond)

	p.SlowHost("slow.example.com")
	p.SlowHost("slow.example.com")

	limiter, ok := p.hosts["slow.example.com"].(*SimpleRateLimiter)
	require.True(t, ok)
	assert.Equal(t, 200*time.Millisecond, limiter.minDelay, "repeated slowdowns must not compound")
	assert.Equal(t, 400*time.Millisecond, limiter.maxDelay)

	// Other hosts keep the default window.
	require.NoError(t, p.WaitHost(context.Background(), "fast.example.com"))
	fast := p.hosts["fast.example.com"].(*SimpleRateLimiter)
	assert.Equal(t, 100*time.Millisecond, fast.minDelay)
}

func TestSimpleRateLimiter_WaitHonoursContext(t *testing.T) {
	limiter := NewSimpleRateLimiter(time.Minute, time.Minute)
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSimpleRateLimiter_SetDelay(t *testing.T) {
	limiter := NewSimpleRateLimiter(time.Second, 2*time.Second)
	limiter.SetDelay(0, 0)

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))
	require.NoError(t, limiter.Wait(context.Background()))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
