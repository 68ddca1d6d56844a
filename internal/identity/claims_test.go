package identity_test

import (
	"testing"
	"time"

	"go-leave/internal/identity"
	identityerrors "go-leave/internal/identity/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const secret = "unit-test-secret"

func validClaims() identity.Claims {
	return identity.Claims{
		UserID:      uuid.New().String(),
		Email:       "ana@example.com",
		Roles:       []string{"EMPLOYEE"},
		DisplayName: "Ana",
	}
}

func TestClaims_ToUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := validClaims()
		team := "team-7"
		c.TeamID = &team
		c.Roles = []string{"EMPLOYEE", "ADMIN"}

		u, err := c.ToUser()

		assert.NoError(t, err)
		assert.Equal(t, c.UserID, u.UserID.String())
		assert.True(t, u.IsAdmin())
		assert.Equal(t, "team-7", *u.TeamID)
	})

	mutations := map[string]func(c *identity.Claims){
		"missing user id":   func(c *identity.Claims) { c.UserID = "" },
		"non uuid user id":  func(c *identity.Claims) { c.UserID = "42" },
		"missing email":     func(c *identity.Claims) { c.Email = "" },
		"missing name":      func(c *identity.Claims) { c.DisplayName = " " },
		"no roles":          func(c *identity.Claims) { c.Roles = nil },
		"unknown role":      func(c *identity.Claims) { c.Roles = []string{"SUPERUSER"} },
		"lower case role":   func(c *identity.Claims) { c.Roles = []string{"admin"} },
	}
	for name, mutate := range mutations {
		t.Run("negative "+name, func(t *testing.T) {
			c := validClaims()
			mutate(&c)

			_, err := c.ToUser()

			assert.ErrorIs(t, err, identityerrors.ErrInvalidClaims)
		})
	}
}

func TestParseToken(t *testing.T) {
	user := identity.AuthenticatedUser{
		UserID:      uuid.New(),
		Roles:       []identity.Role{identity.RoleAdmin},
		Email:       "boss@example.com",
		DisplayName: "Boss",
	}

	t.Run("round trip", func(t *testing.T) {
		token, err := identity.IssueToken(secret, user, time.Hour)
		assert.NoError(t, err)

		got, err := identity.ParseToken(token, secret)

		assert.NoError(t, err)
		assert.Equal(t, user.UserID, got.UserID)
		assert.Equal(t, user.Roles, got.Roles)
	})

	t.Run("negative wrong secret", func(t *testing.T) {
		token, _ := identity.IssueToken(secret, user, time.Hour)

		_, err := identity.ParseToken(token, "other")

		assert.ErrorIs(t, err, identityerrors.ErrInvalidToken)
	})

	t.Run("negative expired", func(t *testing.T) {
		token, _ := identity.IssueToken(secret, user, -time.Minute)

		_, err := identity.ParseToken(token, secret)

		assert.ErrorIs(t, err, identityerrors.ErrTokenExpired)
	})

	t.Run("negative roles as comma string", func(t *testing.T) {
		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id":      user.UserID.String(),
			"email":        user.Email,
			"display_name": user.DisplayName,
			"roles":        "ADMIN,EMPLOYEE",
			"exp":          time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte(secret))

		_, err := identity.ParseToken(token, secret)

		assert.Error(t, err)
	})
}
