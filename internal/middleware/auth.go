package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"linkforge/internal/auth"
)

// AuthMiddleware delegates credential verification to the identity service
// and stores the resulting principal in the request context.
func AuthMiddleware(client *auth.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := client.Verify(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or missing credentials",
			})
			c.Abort()
			return
		}

		c.Set("user_id", principal.UserID)
		c.Set("user_email", principal.Email)
		c.Next()
	}
}
