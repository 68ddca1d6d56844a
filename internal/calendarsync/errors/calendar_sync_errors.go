package calendarsyncerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrQueueNotConfigured = apperror.New(
		"CALENDAR_QUEUE_NOT_CONFIGURED",
		"calendar sync queue is not configured",
		http.StatusInternalServerError,
	)
	ErrEnqueueFailed = apperror.New(
		"CALENDAR_SYNC_ENQUEUE_FAILED",
		"calendar sync could not be queued",
		http.StatusInternalServerError,
	)
	ErrLeaveNotApproved = apperror.New(
		"LEAVE_NOT_APPROVED",
		"only approved leave requests can be synced",
		http.StatusConflict,
	)
	ErrProviderNotConfigured = apperror.New(
		"CALENDAR_PROVIDER_NOT_CONFIGURED",
		"calendar provider credentials are not configured",
		http.StatusInternalServerError,
	)
	ErrTokenError = apperror.New(
		"CALENDAR_TOKEN_ERROR",
		"could not obtain calendar provider token",
		http.StatusBadGateway,
	)
	ErrEventError = apperror.New(
		"CALENDAR_EVENT_ERROR",
		"calendar provider rejected the event",
		http.StatusBadGateway,
	)
)
