package revocation

import (
	"context"
	"sync"
	"time"

	"github.com/vigil-auth/vigil/token"
)

// MemoryStore is an in-process [Store] for tests, examples, and single-node
// deployments. Revocations are lost on restart, which is acceptable only
// when every token outlives the process or the deployment accepts replay of
// consumed tokens after a crash.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// IsRevoked implements [Store].
func (s *MemoryStore) IsRevoked(_ context.Context, tokenStr string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[tokenStr]
	return ok, nil
}

// Revoke implements [Store]. The insert is idempotent: the first writer wins
// and later callers get the first writer's record back.
func (s *MemoryStore) Revoke(_ context.Context, tokenStr string, purpose token.Purpose, expiresAt time.Time, manual bool) (Record, error) {
	if err := checkPurpose(purpose); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[tokenStr]; ok {
		return existing, nil
	}

	now := s.now()
	rec := Record{
		Token:     tokenStr,
		Purpose:   purpose,
		Manual:    manual,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.records[tokenStr] = rec
	return rec, nil
}

// Sweep implements [Store].
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for key, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, key)
			deleted++
		}
	}
	return deleted, nil
}

// Len reports the current record count. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
