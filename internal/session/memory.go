package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-process session store. It is the default for tests
// and single-instance deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	window int
	byUser map[string][]Turn
}

// NewMemoryStore creates a store keeping at most window turns per user.
func NewMemoryStore(window int) *MemoryStore {
	if window <= 0 {
		window = DefaultWindow
	}
	return &MemoryStore{
		window: window,
		byUser: make(map[string][]Turn),
	}
}

func (s *MemoryStore) Append(ctx context.Context, userID string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[userID] = trimWindow(append(s.byUser[userID], turn), s.window)
	return nil
}

func (s *MemoryStore) History(ctx context.Context, userID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.byUser[userID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
	return nil
}
