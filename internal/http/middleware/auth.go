package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ofitrack/ofitrack-backend/internal/auth"
)

// Gin context keys populated by Authenticate.
const (
	UserIDKey = "userID"
	RoleKey   = "userRole"
)

// TokenVerifier validates a raw bearer token.
type TokenVerifier interface {
	Verify(raw string) (*auth.Claims, error)
}

// Authenticate reads "Authorization: Bearer <token>" and stores the token's
// user id under UserIDKey. A present but invalid token is always rejected
// with 401. A missing token is rejected only when required is set; otherwise
// the request continues anonymously and handlers decide.
func Authenticate(v TokenVerifier, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			if required {
				unauthorized(c, "missing bearer token")
				return
			}
			c.Next()
			return
		}
		claims, err := v.Verify(raw)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return asString(c.Value(UserIDKey))
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="ofitrack"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": asString(c.Value(requestIDKey)),
		"code":       "unauthorized",
		"error":      msg,
	})
}
