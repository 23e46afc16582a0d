package ratelimit

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/folio/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("ratelimit",
	fx.Provide(
		newRedisClient,
		NewTokenBucket,
		NewDraftAPILimiter,
	),
)

// newRedisClient returns nil when no address is configured; the bucket
// and limiter treat a nil client as "limiting disabled".
func newRedisClient(cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Named("ratelimit").Info("redis not configured, rate limiting disabled")
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}
