package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/folio/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

const correlationHeader = "X-Request-Id"

// GinMiddleware logs each request and propagates a correlation id.
func GinMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		ctx := c.Request.Context()
		if incoming := c.GetHeader(correlationHeader); incoming != "" {
			ctx = correlation.ContextWithCorrelationID(ctx, incoming)
		}
		ctx, correlationID := correlation.EnsureCorrelationID(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(correlationHeader, correlationID)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		log := WithContext(ctx, base)
		switch {
		case status >= 500:
			log.Error("http request", fields...)
		case status >= 400:
			log.Warn("http request", fields...)
		default:
			log.Info("http request", fields...)
		}
	}
}
