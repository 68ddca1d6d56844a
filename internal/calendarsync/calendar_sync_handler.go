package calendarsync

import (
	"context"
	"net/http"

	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Enqueuer interface {
	EnqueueCalendarSync(ctx context.Context, requestID string) error
}

type Handler struct {
	enqueuer Enqueuer
	logger   *zap.Logger
}

func NewHandler(enqueuer Enqueuer, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("calendarsync.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("calendarsync.handler")
	}
	return &Handler{enqueuer: enqueuer, logger: l}
}

// Enqueue lets an admin re-queue a sync, e.g. after the consumer gave up.
func (h *Handler) Enqueue(c *gin.Context) {
	var req EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperror.MapValidationError(err))
		return
	}

	if err := h.enqueuer.EnqueueCalendarSync(c.Request.Context(), req.RequestID); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, EnqueueResponse{
		Message:   "calendar sync enqueued",
		RequestID: req.RequestID,
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("calendar sync request failed",
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}
