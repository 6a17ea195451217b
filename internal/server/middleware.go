package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ykvlv/checkin-bot/internal/logger"
)

// requestLogger puts a request-scoped logger into the request context and
// logs one line per request.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log.With(
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLog))

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			reqLog.Error("http request", fields...)
		case status >= 400:
			reqLog.Warn("http request", fields...)
		default:
			reqLog.Debug("http request", fields...)
		}
	}
}

func recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		log.Error("panic recovered", zap.Any("panic", err), zap.String("path", c.FullPath()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, ack{OK: false, Error: "internal error"})
	})
}

// requireWebhookSecret accepts the secret either as the :secret path
// segment or in SecretHeader.
func requireWebhookSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Param("secret") != secret && c.GetHeader(SecretHeader) != secret {
			c.AbortWithStatusJSON(http.StatusForbidden, ack{OK: false, Error: "forbidden"})
			return
		}
		c.Next()
	}
}

func requireBearer(token string) gin.HandlerFunc {
	want := "Bearer " + token
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != want {
			c.AbortWithStatusJSON(http.StatusForbidden, ack{OK: false, Error: "forbidden"})
			return
		}
		c.Next()
	}
}
