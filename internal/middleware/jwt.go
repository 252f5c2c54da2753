package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/pathfinder-edu/pathfinder-api/internal/models"
	"github.com/pathfinder-edu/pathfinder-api/pkg/response"
)

// ContextUserKey is the gin context key storing session claims.
const ContextUserKey = "currentUser"

type bearerVerifier interface {
	VerifyBearer(header string) (*models.SessionClaims, error)
}

// JWT protects routes by requiring a valid bearer token.
func JWT(auth bearerVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := auth.VerifyBearer(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}
