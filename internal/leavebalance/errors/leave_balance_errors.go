package leavebalanceerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrInvalidYear = apperror.New(
		apperror.CodeValidation,
		"year must be a four digit year",
		http.StatusBadRequest,
	)
	ErrInvalidUserID = apperror.New(
		apperror.CodeValidation,
		"user_id must be a uuid",
		http.StatusBadRequest,
	)
	ErrPolicyNotFound = apperror.New(
		"POLICY_NOT_FOUND",
		"leave policy not found",
		http.StatusNotFound,
	)
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave balance not found",
		http.StatusNotFound,
	)
)
