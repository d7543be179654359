package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"skincare-gateway/internal/session"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
)

// Identity resolves the caller's identity from the active session strategy
// and stores it in context. Callers without a session may still identify
// themselves with an X-Guest-Id header; otherwise they remain anonymous.
func Identity(strategy session.Strategy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strategy != nil {
			sess, ok, err := strategy.Current(c.Request.Context())
			if err == nil && ok {
				id := sess.User.Email()
				if v, isStr := sess.User["id"].(string); isStr && v != "" {
					id = v
				}
				if id != "" {
					c.Set(userIDKey, id)
					if email := sess.User.Email(); email != "" {
						c.Set(userEmailKey, email)
					}
					c.Next()
					return
				}
			}
		}

		if guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id")); guestID != "" {
			c.Set(userIDKey, "guest:"+guestID)
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the identity middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserEmailFromContext fetches the user email set by the identity middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}
