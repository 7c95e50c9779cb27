// Package following caches the accounts a newly linked Twitter account
// follows.
package following

import (
	"context"
	"sync"
	"time"
)

// Store keeps the following list of one account for a limited time.
type Store interface {
	Save(ctx context.Context, accountID string, ids []string) error
	Get(ctx context.Context, accountID string) ([]string, error)
}

func key(accountID string) string {
	return "following:twitter:" + accountID
}

type memEntry struct {
	ids     []string
	expires time.Time
}

// MemoryStore is used when no Redis address is configured.
type MemoryStore struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]memEntry
	now func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, m: map[string]memEntry{}, now: time.Now}
}

func (s *MemoryStore) Save(ctx context.Context, accountID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]string, len(ids))
	copy(cp, ids)
	s.m[key(accountID)] = memEntry{ids: cp, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, accountID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.m[key(accountID)]
	if !ok {
		return nil, nil
	}
	if s.ttl > 0 && !s.now().Before(e.expires) {
		delete(s.m, key(accountID))
		return nil, nil
	}
	cp := make([]string, len(e.ids))
	copy(cp, e.ids)
	return cp, nil
}
