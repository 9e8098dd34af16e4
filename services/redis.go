package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisService wraps the shared redis client. When REDIS_ADDR is unset
// the service stays disabled and callers fall back to in-process state.
type RedisService struct {
	appContext.DefaultService
	redis *redis.Client
}

const REDIS_SVC = "redis_svc"

func (svc RedisService) Id() string {
	return REDIS_SVC
}

func (svc *RedisService) Enabled() bool {
	return svc.redis != nil
}

func (svc *RedisService) Configure(ctx *appContext.Context) error {
	addr := os.Getenv("REDIS_ADDR")
	if addr != "" {
		db := 0
		if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
			if parsed, err := strconv.Atoi(dbStr); err == nil {
				db = parsed
			}
		}
		svc.redis = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       db,
		})
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *RedisService) Start() error {
	if svc.redis == nil {
		log.Info("Redis disabled, REDIS_ADDR not set")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := svc.redis.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

func (svc *RedisService) Shutdown() {
	if svc.redis != nil {
		svc.redis.Close()
	}
}

func (svc *RedisService) GetClient() *redis.Client {
	return svc.redis
}

func (svc *RedisService) Incr(ctx context.Context, key string) (int64, error) {
	if svc.redis == nil {
		return 0, fmt.Errorf("redis client not initialized")
	}
	return svc.redis.Incr(ctx, key).Result()
}

func (svc *RedisService) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if svc.redis == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return svc.redis.Expire(ctx, key, ttl).Err()
}

func (svc *RedisService) TTL(ctx context.Context, key string) (time.Duration, error) {
	if svc.redis == nil {
		return 0, fmt.Errorf("redis client not initialized")
	}
	return svc.redis.TTL(ctx, key).Result()
}

func (svc *RedisService) Get(ctx context.Context, key string) (string, error) {
	if svc.redis == nil {
		return "", fmt.Errorf("redis client not initialized")
	}
	return svc.redis.Get(ctx, key).Result()
}

func (svc *RedisService) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if svc.redis == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return svc.redis.Set(ctx, key, value, ttl).Err()
}

func (svc *RedisService) Del(ctx context.Context, key string) error {
	if svc.redis == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return svc.redis.Del(ctx, key).Err()
}
