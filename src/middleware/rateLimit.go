package middleware

import (
	"net/http"

	"github.com/biblioteca/loans-service/src/dtos"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit applies one token bucket to every request. A non-positive rps
// disables limiting.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(ctx *gin.Context) { ctx.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(ctx *gin.Context) {
		if !limiter.Allow() {
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests,
				dtos.NewErrorResponse(http.StatusTooManyRequests, "Too many requests, slow down", nil))
			return
		}
		ctx.Next()
	}
}
