package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/aura-lectures/backend/pkg/response"
)

// RequireRole allows only the given roles. It must run after JWT.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			response.Unauthorized(c, "missing caller context")
			c.Abort()
			return
		}
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
