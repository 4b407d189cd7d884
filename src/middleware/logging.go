package middleware

import (
	"time"

	"github.com/biblioteca/loans-service/src/logger"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request once the handler chain is done.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("http")
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := ctx.Writer.Status()
		kvs := []any{
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"status", status,
			"latencyMs", time.Since(start).Milliseconds(),
			"requestId", ctx.GetString(RequestIDKey),
		}
		switch {
		case status >= 500:
			log.Errorw("request served", kvs...)
		case status >= 400:
			log.Warnw("request served", kvs...)
		default:
			log.Infow("request served", kvs...)
		}
	}
}
