package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"beiboot-backend/internal/auth"
	"beiboot-backend/internal/models"
)

const PrincipalKey = "principal"

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(verifier auth.Verifier, log *zap.Logger) gin.HandlerFunc {
	return authenticate(verifier, log, false)
}

// OptionalAuth lets anonymous requests through but still rejects bad tokens.
func OptionalAuth(verifier auth.Verifier, log *zap.Logger) gin.HandlerFunc {
	return authenticate(verifier, log, true)
}

func authenticate(verifier auth.Verifier, log *zap.Logger, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if optional {
				c.Next()
				return
			}
			abort(c, "missing authorization header")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, "invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abort(c, "empty token")
			return
		}

		// Try URL decoding in case the token was URL-encoded
		if decoded, err := url.QueryUnescape(tokenString); err == nil {
			tokenString = decoded
		}

		principal, err := verifier.Verify(c.Request.Context(), tokenString)
		if err != nil {
			log.Debug("token rejected", zap.Error(err))
			abort(c, "invalid token")
			return
		}

		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

func abort(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized", Message: msg})
}

// Principal returns the authenticated caller, if any.
func Principal(c *gin.Context) (*auth.Principal, bool) {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok && p != nil
}

// CallerID is the principal id, or "" for anonymous callers.
func CallerID(c *gin.Context) string {
	if p, ok := Principal(c); ok {
		return p.ID
	}
	return ""
}
