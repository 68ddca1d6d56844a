package middleware

import (
	"go-leave/internal/identity"
	"go-leave/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

// RBACService is satisfied by rbac.Service.
type RBACService interface {
	Enforce(user identity.AuthenticatedUser, resource, action string) (bool, error)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := identity.FromGin(c)
		if !ok {
			abortWithError(c, apperror.ErrUnauthorized)
			return
		}

		allowed, err := service.Enforce(user, resource, action)
		if err != nil {
			abortWithError(c, apperror.ErrInternal.WithCause(err))
			return
		}

		if !allowed {
			abortWithError(c, apperror.ErrForbidden.WithDetails(map[string]any{
				"required": resource + ":" + action,
			}))
			return
		}
		c.Next()
	}
}
