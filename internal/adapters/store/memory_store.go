package store

import (
	"context"
	"sort"
	"sync"

	"github.com/mikey/email-triage/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is a volatile, process-local implementation of the ThreadRepository interface
type MemoryStore struct {
	threads map[string][]*core.Email
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory thread store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		threads: make(map[string][]*core.Email),
		logger:  logger,
	}
}

// Append adds an email to the end of its thread
func (s *MemoryStore) Append(ctx context.Context, email *core.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := email.ThreadKey()
	if _, ok := s.threads[key]; !ok {
		s.logger.Debug("New thread", zap.String("thread_id", key))
	}
	s.threads[key] = append(s.threads[key], email)
	return nil
}

// Thread returns a copy of the thread's emails, oldest first
func (s *MemoryStore) Thread(ctx context.Context, key string) ([]*core.Email, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emails := s.threads[key]
	out := make([]*core.Email, len(emails))
	copy(out, emails)
	return out, nil
}

// Threads lists known thread keys in sorted order
func (s *MemoryStore) Threads(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.threads))
	for key := range s.threads {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
