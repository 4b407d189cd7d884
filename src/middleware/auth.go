package middleware

import (
	"net/http"
	"strings"

	"github.com/biblioteca/loans-service/src/dtos"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// ClaimsKey is the gin context key holding the verified token claims.
const ClaimsKey = "claims"

func unauthorized(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, dtos.NewErrorResponse(http.StatusUnauthorized, message, nil))
}

// AuthMiddleware accepts requests carrying a valid HS256 bearer token signed
// with secret. Expired tokens are rejected by the parser.
func AuthMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(ctx *gin.Context) {
		authHeader := strings.TrimSpace(ctx.GetHeader("Authorization"))
		if authHeader == "" {
			unauthorized(ctx, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(ctx, "Invalid authorization format")
			return
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(parts[1], claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			if errors.Is(err, jwt.ErrTokenExpired) {
				unauthorized(ctx, "Token expired")
				return
			}
			unauthorized(ctx, "Invalid token")
			return
		}

		ctx.Set(ClaimsKey, claims)
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			ctx.Set("userId", sub)
		} else if id, ok := claims["id"]; ok {
			ctx.Set("userId", id)
		}
		ctx.Next()
	}
}
