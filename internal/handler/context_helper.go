package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campuspass-api/internal/middleware"
	"github.com/noah-isme/campuspass-api/internal/models"
	appErrors "github.com/noah-isme/campuspass-api/pkg/errors"
	"github.com/noah-isme/campuspass-api/pkg/response"
)

// identityFromContext returns the caller or writes a 401 and returns nil.
func identityFromContext(c *gin.Context) *models.Identity {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return identity
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}
