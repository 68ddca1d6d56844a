package idempotency

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval is how often NewMemoryStore callers usually sweep.
const DefaultSweepInterval = time.Hour

type memoryItem struct {
	entry     Entry
	expiresAt time.Time
}

type memoryLock struct {
	token     string
	expiresAt time.Time
}

// MemoryStore keeps entries in process. It does not span instances and is
// meant for single node deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryItem
	locks   map[string]memoryLock
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore starts a sweeper that drops expired entries every
// sweepInterval. A non-positive interval disables the sweeper; expired
// entries are still ignored on read.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryItem),
		locks:   make(map[string]memoryLock),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if !s.now().Before(item.expiresAt) {
		delete(s.entries, key)
		return nil, nil
	}
	e := item.entry
	e.Body = append([]byte(nil), item.entry.Body...)
	return &e, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, entry Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.Body = append([]byte(nil), entry.Body...)
	s.entries[key] = memoryItem{entry: entry, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Acquire(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lk := lockKey(key)
	if held, ok := s.locks[lk]; ok && s.now().Before(held.expiresAt) {
		return "", false, nil
	}
	token := newLockToken()
	s.locks[lk] = memoryLock{token: token, expiresAt: s.now().Add(ttl)}
	return token, true, nil
}

func (s *MemoryStore) Release(_ context.Context, key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lk := lockKey(key)
	if held, ok := s.locks[lk]; ok && held.token == token {
		delete(s.locks, lk)
	}
	return nil
}

// Sweep removes expired entries and locks and returns how many it dropped.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for k, item := range s.entries {
		if !now.Before(item.expiresAt) {
			delete(s.entries, k)
			n++
		}
	}
	for k, l := range s.locks {
		if !now.Before(l.expiresAt) {
			delete(s.locks, k)
			n++
		}
	}
	return n
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
