package identity

import (
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// AuthenticatedUser is the already verified caller. Services only make
// ownership and role decisions on it.
type AuthenticatedUser struct {
	UserID      uuid.UUID
	Roles       []Role
	Email       string
	DisplayName string
	TeamID      *string
}

func (u AuthenticatedUser) IsAdmin() bool {
	return slices.Contains(u.Roles, RoleAdmin)
}

func (u AuthenticatedUser) RoleNames() []string {
	out := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		out[i] = string(r)
	}
	return out
}

const ginUserKey = "auth_user"

func SetUser(c *gin.Context, u AuthenticatedUser) {
	c.Set(ginUserKey, u)
}

func FromGin(c *gin.Context) (AuthenticatedUser, bool) {
	v, ok := c.Get(ginUserKey)
	if !ok {
		return AuthenticatedUser{}, false
	}
	u, ok := v.(AuthenticatedUser)
	return u, ok
}
