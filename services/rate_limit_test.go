package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestRateLimitService() *RateLimitService {
	return &RateLimitService{
		configs: map[string]rateLimitConfig{
			"register_device": {Limit: 5, Window: 15 * time.Minute},
			"tiny":            {Limit: 2, Window: time.Minute},
			"default":         {Limit: 120, Window: time.Minute},
		},
		windows: map[string]*rateWindow{},
	}
}

func TestAllowUnderLimit(t *testing.T) {
	svc := newTestRateLimitService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, _ := svc.Allow(ctx, "register_device", "1.2.3.4")
		assert.True(t, allowed)
	}

	allowed, cfg := svc.Allow(ctx, "register_device", "1.2.3.4")
	assert.False(t, allowed)
	assert.Equal(t, 5, cfg.Limit)
}

func TestAllowSeparatesIdentifiers(t *testing.T) {
	svc := newTestRateLimitService()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, _ := svc.Allow(ctx, "tiny", "1.2.3.4")
		assert.True(t, allowed)
	}
	allowed, _ := svc.Allow(ctx, "tiny", "1.2.3.4")
	assert.False(t, allowed)

	// another client is unaffected
	allowed, _ = svc.Allow(ctx, "tiny", "5.6.7.8")
	assert.True(t, allowed)

	// same client under a different scope is unaffected
	allowed, _ = svc.Allow(ctx, "default", "1.2.3.4")
	assert.True(t, allowed)
}

func TestAllowUnknownScopeUsesDefault(t *testing.T) {
	svc := newTestRateLimitService()

	allowed, cfg := svc.Allow(context.Background(), "nonexistent", "1.2.3.4")
	assert.True(t, allowed)
	assert.Equal(t, 120, cfg.Limit)
}

func TestWindowResets(t *testing.T) {
	svc := newTestRateLimitService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.Allow(ctx, "tiny", "1.2.3.4")
	}
	allowed, _ := svc.Allow(ctx, "tiny", "1.2.3.4")
	assert.False(t, allowed)

	// expire the window by hand
	svc.mu.Lock()
	svc.windows["ratelimit:tiny:1.2.3.4"].resetAt = time.Now().Add(-time.Second)
	svc.mu.Unlock()

	allowed, _ = svc.Allow(ctx, "tiny", "1.2.3.4")
	assert.True(t, allowed)
}
