// Package friends keeps the symmetric friend relation between codes. The
// persisted store is the source of truth; the ledger holds a per-process
// cache seeded from it on first use of each code.
package friends

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"pairchat/backend/internal/storage"
)

var (
	// ErrPersistence means the write-through failed and nothing was recorded.
	ErrPersistence = errors.New("friend store write failed")
	ErrInvalidPair = storage.ErrInvalidPair
)

// Ledger is safe for concurrent use. Store calls run without holding the lock.
type Ledger struct {
	store storage.Storage

	mu    sync.Mutex
	cache map[string]map[string]struct{}
	// gen is bumped whenever a code's cached view changes, so a seed that
	// raced with a write is not installed.
	gen map[string]uint64
}

func NewLedger(store storage.Storage) *Ledger {
	return &Ledger{
		store: store,
		cache: make(map[string]map[string]struct{}),
		gen:   make(map[string]uint64),
	}
}

// AddFriend writes the edge through to the store and, only on success,
// records it in the cache for both codes.
func (l *Ledger) AddFriend(ctx context.Context, codeA, codeB string) error {
	if err := l.Persist(ctx, codeA, codeB); err != nil {
		return err
	}
	l.Commit(codeA, codeB)
	return nil
}

// Persist is the store half of AddFriend. It never touches the cache.
func (l *Ledger) Persist(ctx context.Context, codeA, codeB string) error {
	if codeA == "" || codeB == "" || codeA == codeB {
		return ErrInvalidPair
	}
	if err := l.store.AddFriendPair(ctx, codeA, codeB); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Commit records an already persisted edge in the cache. Codes that were
// never seeded stay unseeded; their next ListFriends reads the store.
func (l *Ledger) Commit(codeA, codeB string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.link(codeA, codeB)
	l.link(codeB, codeA)
}

func (l *Ledger) link(owner, friend string) {
	l.gen[owner]++
	if set, ok := l.cache[owner]; ok {
		set[friend] = struct{}{}
	}
}

// Invalidate forgets the cached list of code so the next read reseeds it.
func (l *Ledger) Invalidate(code string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, code)
	l.gen[code]++
}

// ListFriends returns the sorted friend codes of code.
func (l *Ledger) ListFriends(ctx context.Context, code string) ([]string, error) {
	l.mu.Lock()
	if set, ok := l.cache[code]; ok {
		out := setToSlice(set)
		l.mu.Unlock()
		return out, nil
	}
	gen := l.gen[code]
	l.mu.Unlock()

	friends, err := l.store.GetFriends(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("load friends of %q: %w", code, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if set, ok := l.cache[code]; ok {
		return setToSlice(set), nil
	}
	set := make(map[string]struct{}, len(friends))
	for _, f := range friends {
		set[f] = struct{}{}
	}
	if l.gen[code] == gen {
		l.cache[code] = set
	}
	return setToSlice(set), nil
}

// RemoveFriend deletes the edge from the store and drops both cached lists.
func (l *Ledger) RemoveFriend(ctx context.Context, codeA, codeB string) error {
	if err := l.store.RemoveFriendPair(ctx, codeA, codeB); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	l.Invalidate(codeA)
	l.Invalidate(codeB)
	return nil
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
