package idempotency

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is a cached response replayed verbatim for a repeated key.
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type Store interface {
	// Get returns nil, nil when nothing is cached for key.
	Get(ctx context.Context, key string) (*Entry, error)
	Save(ctx context.Context, key string, entry Entry, ttl time.Duration) error
	// Acquire takes the in-flight lock for key and returns the token that
	// owns it. It reports false when another request already holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	// Release drops the lock only while token still owns it, so a holder
	// whose lock expired cannot free a newer holder's lock.
	Release(ctx context.Context, key, token string) error
}

func lockKey(key string) string {
	return key + ":lock"
}

func newLockToken() string {
	return uuid.NewString()
}
