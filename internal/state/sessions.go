package state

import "sync"

// Sessions hands out one Store per user. Stores live for the lifetime of the
// process; a returning user picks up the UI state they left behind.
type Sessions struct {
	mu     sync.Mutex
	stores map[string]*Store
}

// NewSessions creates an empty session manager.
func NewSessions() *Sessions {
	return &Sessions{stores: make(map[string]*Store)}
}

// ForUser returns the user's store, creating it on first use.
func (s *Sessions) ForUser(userID string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, ok := s.stores[userID]
	if !ok {
		store = NewStore()
		s.stores[userID] = store
	}

	return store
}
