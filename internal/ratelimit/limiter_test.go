package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMiddlewarePassesWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewDraftAPILimiter(LimiterParams{Bucket: nil, Log: zap.NewNop()})

	router := gin.New()
	router.Use(limiter.GinMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNewTokenBucketNilClient(t *testing.T) {
	require.Nil(t, NewTokenBucket(nil))
}

func TestAllowValidatesArguments(t *testing.T) {
	var bucket *TokenBucket

	_, err := bucket.Allow(t.Context(), "key", 1, 1)
	require.Error(t, err)
}
