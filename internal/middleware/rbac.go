package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tutormatch/tutormatch-api/internal/models"
	appErrors "github.com/tutormatch/tutormatch-api/pkg/errors"
	"github.com/tutormatch/tutormatch-api/pkg/response"
)

// RequireRoles limits a route to the given roles. It must run after JWT.
// Resource ownership is still checked by the service layer.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "role not allowed"))
			return
		}
		c.Next()
	}
}
