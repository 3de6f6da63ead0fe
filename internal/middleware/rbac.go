package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campuspass-api/internal/models"
	appErrors "github.com/noah-isme/campuspass-api/pkg/errors"
	"github.com/noah-isme/campuspass-api/pkg/response"
)

// RequireRoles allows the request only when the declared role is one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		identity := CurrentIdentity(c)
		if identity == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[identity.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin role required"))
			return
		}
		c.Next()
	}
}
