package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
)

// RateLimiter is a fixed-window request limiter shared across server
// processes. Extraction endpoints fan out to paid OCR/LLM backends, so the
// window is enforced in Redis rather than per-process.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

type rateLimiter struct {
	log    *logger.Logger
	rdb    *goredis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(log *logger.Logger, limit int, window time.Duration) (RateLimiter, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &rateLimiter{
		log:    log.With("client", "RedisRateLimiter"),
		rdb:    rdb,
		limit:  limit,
		window: window,
	}, nil
}

func (rl *rateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(rl.window.Seconds()))

	count, err := rl.rdb.Incr(ctx, windowKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis incr: %w", err)
	}
	if count == 1 {
		if err := rl.rdb.Expire(ctx, windowKey, rl.window).Err(); err != nil {
			rl.log.Warn("Failed to set rate limit window expiry", "error", err)
		}
	}
	return count <= int64(rl.limit), nil
}

func (rl *rateLimiter) Close() error {
	return rl.rdb.Close()
}
