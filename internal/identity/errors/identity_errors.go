package identityerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrTokenMissing = apperror.New(
		apperror.CodeUnauthorized,
		"token not found",
		http.StatusUnauthorized,
	)
	ErrInvalidToken = apperror.New(
		"INVALID_TOKEN",
		"invalid token",
		http.StatusUnauthorized,
	)
	ErrTokenExpired = apperror.New(
		"TOKEN_EXPIRED",
		"token expired",
		http.StatusUnauthorized,
	)
	ErrInvalidClaims = apperror.New(
		"INVALID_CLAIMS",
		"token claims are missing or malformed",
		http.StatusUnauthorized,
	)
)
