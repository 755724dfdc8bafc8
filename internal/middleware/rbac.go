package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-engine/internal/models"
	appErrors "github.com/noah-isme/sma-score-engine/pkg/errors"
	"github.com/noah-isme/sma-score-engine/pkg/response"
)

// RequireRoles lets through only callers holding one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// StudentSelfOrRoles admits students reading their own records through the
// studentId path parameter, and anyone holding one of roles.
func StudentSelfOrRoles(roles ...models.UserRole) gin.HandlerFunc {
	check := RequireRoles(roles...)
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if ok && claims.Role == models.RoleStudent && claims.UserID != "" && claims.UserID == c.Param("studentId") {
			c.Next()
			return
		}
		check(c)
	}
}
