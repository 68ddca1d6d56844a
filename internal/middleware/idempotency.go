package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"go-leave/internal/idempotency"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotencyReplayedHeader = "Idempotency-Replayed"

	idempotencyLockTTL = 30 * time.Second
)

var ErrIdempotencyInProgress = apperror.New(
	apperror.CodeIdempotencyInUse,
	"a request with this Idempotency-Key is still being processed",
	http.StatusConflict,
)

var ErrIdempotencyUnavailable = apperror.New(
	apperror.CodeServiceUnavailable,
	"idempotency store unavailable, retry later",
	http.StatusServiceUnavailable,
)

type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the first successful response for a repeated
// Idempotency-Key. The key is scoped by method, path and authenticated user.
// Only 2xx responses are cached; failures can be retried with the same key.
func Idempotency(store idempotency.Store, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader(IdempotencyKeyHeader)
		if idempKey == "" || !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		log := contextutil.GetLogger(ctx, zap.L().Named("middleware.idempotency"))

		userID := c.GetString("user_id_validated")
		cacheKey := fmt.Sprintf("idemp:%s:%s:%s:%s", c.Request.Method, c.Request.URL.Path, userID, idempKey)

		cached, err := store.Get(ctx, cacheKey)
		if err != nil {
			log.Error("idempotency lookup failed", zap.Error(err))
			abortWithError(c, ErrIdempotencyUnavailable)
			return
		}
		if cached != nil {
			replay(c, log, idempKey, cached)
			return
		}

		token, acquired, err := store.Acquire(ctx, cacheKey, idempotencyLockTTL)
		if err != nil {
			log.Error("idempotency lock failed", zap.Error(err))
			abortWithError(c, ErrIdempotencyUnavailable)
			return
		}
		if !acquired {
			log.Warn("idempotency key in flight", zap.String("key", idempKey))
			abortWithError(c, ErrIdempotencyInProgress)
			return
		}
		defer func() {
			if err := store.Release(ctx, cacheKey, token); err != nil {
				log.Warn("idempotency unlock failed", zap.Error(err))
			}
		}()

		// A request holding the lock may have finished between the lookup
		// above and Acquire.
		cached, err = store.Get(ctx, cacheKey)
		if err != nil {
			log.Error("idempotency lookup failed", zap.Error(err))
			abortWithError(c, ErrIdempotencyUnavailable)
			return
		}
		if cached != nil {
			replay(c, log, idempKey, cached)
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := w.Status()
		if status < 200 || status >= 300 {
			return
		}

		entry := idempotency.Entry{
			Status:      status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		}
		if err := store.Save(ctx, cacheKey, entry, ttl); err != nil {
			log.Error("idempotency save failed", zap.Error(err))
		}
	}
}

func replay(c *gin.Context, log *zap.Logger, idempKey string, cached *idempotency.Entry) {
	log.Debug("idempotency replay", zap.String("key", idempKey), zap.Int("status", cached.Status))
	c.Header(IdempotencyReplayedHeader, "true")
	c.Data(cached.Status, cached.ContentType, cached.Body)
	c.Abort()
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch, http.MethodPut:
		return true
	default:
		return false
	}
}
