package idempotency

import "time"

func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *RedisStore) SetTokenSource(newToken func() string) {
	s.newToken = newToken
}

const ReleaseScript = releaseScript
