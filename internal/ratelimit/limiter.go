package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/folio/pkg/userctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// DraftAPILimiter throttles draft mutations per user. Anonymous
// requests fall back to a per-address bucket.
type DraftAPILimiter struct {
	bucket *TokenBucket
	log    *zap.Logger

	rate  float64
	burst int
}

type LimiterParams struct {
	fx.In

	Bucket *TokenBucket `optional:"true"`
	Log    *zap.Logger
}

func NewDraftAPILimiter(p LimiterParams) *DraftAPILimiter {
	return &DraftAPILimiter{
		bucket: p.Bucket,
		log:    p.Log.Named("ratelimit"),
		rate:   10,
		burst:  30,
	}
}

// GinMiddleware enforces the bucket. A missing limiter or a redis
// failure fails open: throttling is protection, not a gate the app
// cannot run without.
func (l *DraftAPILimiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.bucket == nil {
			c.Next()
			return
		}

		key := "folio:ratelimit:addr:" + c.ClientIP()
		if userID, ok := userctx.UserID(c.Request.Context()); ok {
			key = "folio:ratelimit:user:" + userID
		}

		result, err := l.bucket.Allow(c.Request.Context(), key, l.rate, l.burst)
		if err != nil {
			l.log.Warn("rate limiter unavailable, failing open", zap.Error(err))
			c.Next()
			return
		}

		c.Writer.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Writer.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Writer.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
