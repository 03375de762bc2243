package tokenstore

import (
	"context"
	"sync"
	"time"

	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
	hasExpiry bool
}

func NewMemoryStore() domain.TokenStore {
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *memoryStore) Get(ctx context.Context, org string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[org]
	if !ok {
		return "", false, nil
	}
	if entry.hasExpiry && s.now().After(entry.expiresAt) {
		delete(s.entries, org)
		return "", false, nil
	}
	return entry.token, true, nil
}

func (s *memoryStore) Put(ctx context.Context, org, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memoryEntry{token: token}
	if ttl > 0 {
		entry.hasExpiry = true
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries[org] = entry
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, org string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, org)
	return nil
}
