package middleware

import (
	"strings"

	"go-leave/internal/identity"
	identityerrors "go-leave/internal/identity/errors"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware verifies the bearer token (or access_token cookie) and
// stores the resulting identity.AuthenticatedUser on the context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			abortWithError(c, identityerrors.ErrTokenMissing)
			return
		}

		user, err := identity.ParseToken(tokenString, secret)
		if err != nil {
			abortWithError(c, err)
			return
		}

		identity.SetUser(c, user)
		c.Set("user_id_validated", user.UserID.String())

		c.Next()
	}
}

func abortWithError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Abort(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}
