package attendanceerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrClockAlreadyStarted = apperror.New(
		"CLOCK_ALREADY_STARTED",
		"you have an open attendance session",
		http.StatusConflict,
	)
	ErrNoOpenSession = apperror.New(
		"NO_OPEN_SESSION",
		"no open attendance session to clock out of",
		http.StatusConflict,
	)
	ErrNoOpenSessionForUser = apperror.New(
		"NO_OPEN_SESSION",
		"no open attendance session found",
		http.StatusNotFound,
	)
	ErrInvalidTimestamp = apperror.New(
		"INVALID_TIMESTAMP",
		"timestamp must be RFC3339",
		http.StatusBadRequest,
	)
	ErrNegativeDuration = apperror.New(
		"NEGATIVE_DURATION",
		"clock-out cannot be before clock-in",
		http.StatusBadRequest,
	)
	ErrGeoRequired = apperror.New(
		"GEO_REQUIRED",
		"latitude and longitude are required for geo validation",
		http.StatusBadRequest,
	)
	ErrGeoOutOfRange = apperror.New(
		"GEO_OUT_OF_RANGE",
		"you are outside the allowed area for clock-in",
		http.StatusForbidden,
	)
	ErrInvalidUserID = apperror.New(
		apperror.CodeValidation,
		"user id must be a uuid",
		http.StatusBadRequest,
	)
)
