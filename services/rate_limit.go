package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/little-lingo/tutor_api/shared"
)

type rateLimitConfig struct {
	Limit  int
	Window time.Duration
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// RateLimitService enforces fixed-window request limits per client and
// scope. Counters live in redis when available so limits hold across
// replicas; otherwise an in-process map serves a single instance.
type RateLimitService struct {
	appContext.DefaultService

	redisSvc *RedisService
	configs  map[string]rateLimitConfig

	mu      sync.Mutex
	windows map[string]*rateWindow
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	svc.configs = map[string]rateLimitConfig{
		"register_device": {Limit: 5, Window: 15 * time.Minute},
		"claim":           {Limit: 10, Window: 15 * time.Minute},
		"session":         {Limit: 60, Window: time.Minute},
		"default":         {Limit: 120, Window: time.Minute},
	}
	svc.windows = map[string]*rateWindow{}

	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

// Allow counts one request against the scope's window for the identifier
// and reports whether it fits under the limit.
func (svc *RateLimitService) Allow(ctx context.Context, scope, identifier string) (bool, rateLimitConfig) {
	cfg, ok := svc.configs[scope]
	if !ok {
		cfg = svc.configs["default"]
	}

	key := fmt.Sprintf("ratelimit:%s:%s", scope, identifier)

	if svc.redisSvc != nil && svc.redisSvc.Enabled() {
		count, err := svc.redisSvc.Incr(ctx, key)
		if err == nil {
			if count == 1 {
				if err := svc.redisSvc.Expire(ctx, key, cfg.Window); err != nil {
					log.WithError(err).Warn("Failed to set rate limit window expiry")
				}
			}
			return count <= int64(cfg.Limit), cfg
		}
		log.WithError(err).Warn("Redis rate limit check failed, using in-memory window")
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	now := time.Now()
	w, ok := svc.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(cfg.Window)}
		svc.windows[key] = w
	}
	w.count++
	return w.count <= cfg.Limit, cfg
}

// Middleware limits requests per client IP under the named scope.
func (svc *RateLimitService) Middleware(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, cfg := svc.Allow(c.UserContext(), scope, c.IP())
		if !allowed {
			return shared.NewRateLimitError(cfg.Limit, cfg.Window)
		}
		return c.Next()
	}
}
