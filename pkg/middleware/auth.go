package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/saparov/charter-booking/pkg/common"
)

const (
	// UserIDKey is the gin context key for the authenticated user id
	UserIDKey = "user_id"
	// UserNameKey is the gin context key for the authenticated user display name
	UserNameKey = "user_name"
)

// Identity validates the bearer token and exposes the caller's identity so
// admin actions (rate edits, resets) can be attributed in the audit log.
// Full authentication flows live outside this service.
func Identity(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			common.ErrorResponse(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if id, ok := claims["user_id"].(string); ok {
				c.Set(UserIDKey, id)
			}
			if name, ok := claims["name"].(string); ok {
				c.Set(UserNameKey, name)
			}
		}

		c.Next()
	}
}

// CallerName returns the display name of the authenticated caller, falling
// back to the user id, then "unknown".
func CallerName(c *gin.Context) string {
	if name, ok := c.Get(UserNameKey); ok {
		if s, ok := name.(string); ok && s != "" {
			return s
		}
	}
	if id, ok := c.Get(UserIDKey); ok {
		if s, ok := id.(string); ok && s != "" {
			return s
		}
	}
	return "unknown"
}
