package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/socialgraph/pkg/apperr"
	"github.com/d60-Lab/socialgraph/pkg/jwt"
	"github.com/d60-Lab/socialgraph/pkg/response"
)

// Context keys set by Auth.
const (
	UIDKey      = "uid"
	UsernameKey = "username"
	TokenKey    = "token"
)

// Authenticator verifies a bearer token and returns the caller identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*jwt.Claims, error)
}

// Auth rejects requests without a valid, unrevoked bearer token and stores
// the caller's uid under UIDKey.
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			response.Error(c, apperr.Unauthenticated("missing_token", "Authorization bearer token is required"))
			return
		}
		claims, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Set(UIDKey, claims.UID)
		c.Set(UsernameKey, claims.Username)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
