package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go-leave/internal/idempotency"
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type failingStore struct {
	idempotency.Store
}

func (failingStore) Get(ctx context.Context, key string) (*idempotency.Entry, error) {
	return nil, errors.New("redis down")
}

// racingStore lets another request with the same key run to completion
// between the first cache lookup and the lock.
type racingStore struct {
	idempotency.Store
	raced  bool
	racing func()
}

func (s *racingStore) Get(ctx context.Context, key string) (*idempotency.Entry, error) {
	entry, err := s.Store.Get(ctx, key)
	if entry == nil && err == nil && !s.raced {
		s.raced = true
		s.racing()
	}
	return entry, err
}

func newIdempotentRouter(store idempotency.Store, calls *int32, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id_validated", c.GetHeader("X-Test-User"))
		c.Next()
	})
	r.Use(middleware.Idempotency(store, time.Hour))
	handler := func(c *gin.Context) {
		n := atomic.AddInt32(calls, 1)
		c.JSON(status, gin.H{"data": gin.H{"call": n}})
	}
	r.POST("/things", handler)
	r.PATCH("/things/:id", handler)
	r.GET("/things", handler)
	return r
}

func do(r http.Handler, method, path, key, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(middleware.IdempotencyKeyHeader, key)
	}
	req.Header.Set("X-Test-User", user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	t.Run("replays first response without invoking handler", func(t *testing.T) {
		var calls int32
		store := idempotency.NewMemoryStore(0)
		defer store.Close()
		r := newIdempotentRouter(store, &calls, http.StatusCreated)

		first := do(r, http.MethodPost, "/things", "abc", "u1")
		second := do(r, http.MethodPost, "/things", "abc", "u1")

		assert.Equal(t, int32(1), calls)
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, first.Body.String(), second.Body.String())
		assert.Equal(t, "true", second.Header().Get(middleware.IdempotencyReplayedHeader))
		assert.Empty(t, first.Header().Get(middleware.IdempotencyReplayedHeader))
	})

	t.Run("no key passes through", func(t *testing.T) {
		var calls int32
		store := idempotency.NewMemoryStore(0)
		defer store.Close()
		r := newIdempotentRouter(store, &calls, http.StatusCreated)

		do(r, http.MethodPost, "/things", "", "u1")
		do(r, http.MethodPost, "/things", "", "u1")

		assert.Equal(t, int32(2), calls)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("scoped by user and path", func(t *testing.T) {
		var calls int32
		store := idempotency.NewMemoryStore(0)
		defer store.Close()
		r := newIdempotentRouter(store, &calls, http.StatusOK)

		do(r, http.MethodPost, "/things", "abc", "u1")
		do(r, http.MethodPost, "/things", "abc", "u2")
		do(r, http.MethodPatch, "/things/1", "abc", "u1")
		do(r, http.MethodPatch, "/things/2", "abc", "u1")

		assert.Equal(t, int32(4), calls)
	})

	t.Run("non 2xx is not cached", func(t *testing.T) {
		var calls int32
		store := idempotency.NewMemoryStore(0)
		defer store.Close()
		r := newIdempotentRouter(store, &calls, http.StatusConflict)

		do(r, http.MethodPost, "/things", "abc", "u1")
		w := do(r, http.MethodPost, "/things", "abc", "u1")

		assert.Equal(t, int32(2), calls)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("get requests ignore the key", func(t *testing.T) {
		var calls int32
		store := idempotency.NewMemoryStore(0)
		defer store.Close()
		r := newIdempotentRouter(store, &calls, http.StatusOK)

		do(r, http.MethodGet, "/things", "abc", "u1")
		do(r, http.MethodGet, "/things", "abc", "u1")

		assert.Equal(t, int32(2), calls)
	})

	t.Run("negative in flight duplicate", func(t *testing.T) {
		var calls int32
		store := idempotency.NewMemoryStore(0)
		defer store.Close()
		r := newIdempotentRouter(store, &calls, http.StatusOK)

		_, ok, _ := store.Acquire(context.Background(), "idemp:POST:/things:u1:abc", time.Minute)
		assert.True(t, ok)

		w := do(r, http.MethodPost, "/things", "abc", "u1")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "IDEMPOTENCY_IN_PROGRESS")
		assert.Equal(t, int32(0), calls)
	})

	t.Run("request finishing before the lock is replayed", func(t *testing.T) {
		var calls int32
		mem := idempotency.NewMemoryStore(0)
		defer mem.Close()

		var first *httptest.ResponseRecorder
		store := &racingStore{Store: mem}
		r := newIdempotentRouter(store, &calls, http.StatusCreated)
		store.racing = func() {
			first = do(r, http.MethodPost, "/things", "abc", "u1")
		}

		second := do(r, http.MethodPost, "/things", "abc", "u1")

		assert.Equal(t, int32(1), calls)
		assert.Equal(t, http.StatusCreated, first.Code)
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, first.Body.String(), second.Body.String())
		assert.Equal(t, "true", second.Header().Get(middleware.IdempotencyReplayedHeader))
	})

	t.Run("negative store failure", func(t *testing.T) {
		var calls int32
		r := newIdempotentRouter(failingStore{}, &calls, http.StatusOK)

		w := do(r, http.MethodPost, "/things", "abc", "u1")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, int32(0), calls)
	})
}
