package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pc-discussion-scheduler/internal/middleware"
	"github.com/noah-isme/pc-discussion-scheduler/internal/models"
)

const anonymousOperator = "anonymous"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// operatorFromContext names the caller; routes run unauthenticated when auth is off.
func operatorFromContext(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil && claims.Operator != "" {
		return claims.Operator
	}
	return anonymousOperator
}
