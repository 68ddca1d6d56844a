package leaveerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrPolicyNotFound = apperror.New(
		"POLICY_NOT_FOUND",
		"leave policy not found",
		http.StatusNotFound,
	)
	ErrInvalidDate = apperror.New(
		"INVALID_DATE",
		"invalid date, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		"INVALID_DATE_RANGE",
		"end_date must not be before start_date",
		http.StatusBadRequest,
	)
	ErrHalfDayInvalid = apperror.New(
		"HALF_DAY_INVALID",
		"half day leave must start and end on the same date",
		http.StatusBadRequest,
	)
	ErrLeaveDurationInvalid = apperror.New(
		"LEAVE_DURATION_INVALID",
		"leave must cover at least one working day",
		http.StatusBadRequest,
	)
	ErrInsufficientBalance = apperror.New(
		"INSUFFICIENT_BALANCE",
		"insufficient leave balance",
		http.StatusConflict,
	)
	ErrLeaveOverlap = apperror.New(
		"LEAVE_OVERLAP",
		"leave already exists in overlapping period",
		http.StatusConflict,
	)
	ErrLeaveNotFound = apperror.New(
		"LEAVE_REQUEST_NOT_FOUND",
		"leave request not found",
		http.StatusNotFound,
	)
	ErrAlreadyCancelled = apperror.New(
		"ALREADY_CANCELLED",
		"leave request is already cancelled",
		http.StatusConflict,
	)
	ErrAlreadyRejected = apperror.New(
		"ALREADY_REJECTED",
		"leave request is already rejected",
		http.StatusConflict,
	)
	ErrInvalidState = apperror.New(
		apperror.CodeInvalidState,
		"action is not allowed in the current state",
		http.StatusConflict,
	)
	ErrInvalidStatusFilter = apperror.New(
		apperror.CodeValidation,
		"status must be one of PENDING APPROVED REJECTED CANCELLED",
		http.StatusBadRequest,
	)
	ErrInvalidUserFilter = apperror.New(
		apperror.CodeValidation,
		"user_id must be a uuid",
		http.StatusBadRequest,
	)
	ErrCalendarSyncEnqueueFailed = apperror.New(
		"CALENDAR_SYNC_ENQUEUE_FAILED",
		"leave approved but calendar sync could not be queued",
		http.StatusInternalServerError,
	)
)
