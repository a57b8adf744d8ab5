package storage

import (
	"context"
	"sync"
)

// MemoryStore is the process-local backend used for development and tests.
// Its contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	friends map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{friends: make(map[string]map[string]struct{})}
}

func (s *MemoryStore) AddFriendPair(_ context.Context, codeA, codeB string) error {
	if err := checkPair(codeA, codeB); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.link(codeA, codeB)
	s.link(codeB, codeA)
	return nil
}

func (s *MemoryStore) link(owner, friend string) {
	set, ok := s.friends[owner]
	if !ok {
		set = make(map[string]struct{})
		s.friends[owner] = set
	}
	set[friend] = struct{}{}
}

func (s *MemoryStore) RemoveFriendPair(_ context.Context, codeA, codeB string) error {
	if err := checkPair(codeA, codeB); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.friends[codeA], codeB)
	delete(s.friends[codeB], codeA)
	return nil
}

func (s *MemoryStore) GetFriends(_ context.Context, code string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.friends[code]))
	for c := range s.friends[code] {
		out = append(out, c)
	}
	return sorted(out), nil
}

func (s *MemoryStore) Close() error { return nil }
