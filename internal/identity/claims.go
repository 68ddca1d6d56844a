package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	identityerrors "go-leave/internal/identity/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the bearer token contract. Every field except team_id is
// required; nothing is coerced or defaulted.
type Claims struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	DisplayName string   `json:"display_name"`
	TeamID      *string  `json:"team_id,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) ToUser() (AuthenticatedUser, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return AuthenticatedUser{}, identityerrors.ErrInvalidClaims.WithCause(err)
	}
	if strings.TrimSpace(c.Email) == "" || !strings.Contains(c.Email, "@") {
		return AuthenticatedUser{}, identityerrors.ErrInvalidClaims.WithCause(errors.New("email"))
	}
	if strings.TrimSpace(c.DisplayName) == "" {
		return AuthenticatedUser{}, identityerrors.ErrInvalidClaims.WithCause(errors.New("display_name"))
	}
	if len(c.Roles) == 0 {
		return AuthenticatedUser{}, identityerrors.ErrInvalidClaims.WithCause(errors.New("roles"))
	}

	roles := make([]Role, 0, len(c.Roles))
	for _, raw := range c.Roles {
		r := Role(raw)
		if !r.Valid() {
			return AuthenticatedUser{}, identityerrors.ErrInvalidClaims.WithCause(fmt.Errorf("unknown role %q", raw))
		}
		roles = append(roles, r)
	}

	var teamID *string
	if c.TeamID != nil && *c.TeamID != "" {
		v := *c.TeamID
		teamID = &v
	}

	return AuthenticatedUser{
		UserID:      userID,
		Roles:       roles,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		TeamID:      teamID,
	}, nil
}

// ParseToken verifies an HS256 token and maps its claims.
func ParseToken(tokenString, secret string) (AuthenticatedUser, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return AuthenticatedUser{}, identityerrors.ErrTokenExpired
		}
		return AuthenticatedUser{}, identityerrors.ErrInvalidToken.WithCause(err)
	}
	if !token.Valid {
		return AuthenticatedUser{}, identityerrors.ErrInvalidToken
	}

	return claims.ToUser()
}

// IssueToken signs a token for u. Used by local tooling and tests; production
// tokens come from the identity provider.
func IssueToken(secret string, u AuthenticatedUser, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:      u.UserID.String(),
		Email:       u.Email,
		Roles:       u.RoleNames(),
		DisplayName: u.DisplayName,
		TeamID:      u.TeamID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
