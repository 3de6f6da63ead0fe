package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campuspass-api/internal/models"
	appErrors "github.com/noah-isme/campuspass-api/pkg/errors"
	"github.com/noah-isme/campuspass-api/pkg/logger"
	"github.com/noah-isme/campuspass-api/pkg/response"
)

// ContextUserKey is the gin context key storing the caller identity.
const ContextUserKey = "currentUser"

// Identity headers sent by the portal client after login.
const (
	HeaderStudentNumber = "X-Student-Number"
	HeaderUserRole      = "X-User-Role"
)

// Query fallbacks for EventSource clients, which cannot set headers.
const (
	queryStudentNumber = "studentNumber"
	queryUserRole      = "role"
)

// Identity requires a student number and attaches the declared identity. The values are
// trusted as sent; there is no session or token behind them.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		studentNumber := strings.TrimSpace(c.GetHeader(HeaderStudentNumber))
		if studentNumber == "" {
			studentNumber = strings.TrimSpace(c.Query(queryStudentNumber))
		}
		if studentNumber == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing "+HeaderStudentNumber+" header"))
			return
		}

		rawRole := c.GetHeader(HeaderUserRole)
		if rawRole == "" {
			rawRole = c.Query(queryUserRole)
		}
		role := models.UserRole(strings.ToLower(strings.TrimSpace(rawRole)))
		if role == "" {
			role = models.RoleStudent
		}
		if !role.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid "+HeaderUserRole+" header"))
			return
		}

		c.Set(ContextUserKey, &models.Identity{StudentNumber: studentNumber, Role: role})
		c.Set(logger.StudentKey, studentNumber)
		c.Next()
	}
}

// CurrentIdentity returns the identity attached by Identity, or nil.
func CurrentIdentity(c *gin.Context) *models.Identity {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	identity, ok := value.(*models.Identity)
	if !ok {
		return nil
	}
	return identity
}
