package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

// Loader rebuilds a session that is no longer held in memory.
type Loader func(id uuid.UUID) (*State, error)

// Store is a bounded, expiring map of live sessions.
//
// Per-session locks live outside the cache, so a session evicted while a
// callback runs is still serialized against the next caller that reloads it.
type Store struct {
	cache *expirable.LRU[uuid.UUID, *State]

	mu    sync.Mutex
	locks map[uuid.UUID]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore creates a Store holding at most size sessions, each evicted after
// ttl without use.
func NewStore(size int, ttl time.Duration) *Store {
	return &Store{
		cache: expirable.NewLRU[uuid.UUID, *State](size, nil, ttl),
		locks: make(map[uuid.UUID]*keyLock),
	}
}

// Put adds or replaces a session state.
func (s *Store) Put(st *State) {
	s.cache.Add(st.Session.ID, st)
}

// Len returns the number of sessions held in memory.
func (s *Store) Len() int { return s.cache.Len() }

// Do runs fn with exclusive access to the session's state. Calls for the
// same session are serialized; calls for different sessions run in parallel.
//
// On a miss, load (if non-nil) rebuilds the state. Concurrent misses for the
// same id queue on the session lock, so only the first one loads. Without a
// loader a miss returns domain.ErrNotFound.
func (s *Store) Do(id uuid.UUID, load Loader, fn func(*State) error) error {
	s.lock(id)
	defer s.unlock(id)

	st, ok := s.cache.Get(id)
	if !ok {
		if load == nil {
			return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		var err error
		if st, err = load(id); err != nil {
			return err
		}
	}

	// Refresh the expiry.
	s.cache.Add(id, st)

	return fn(st)
}

func (s *Store) lock(id uuid.UUID) {
	s.mu.Lock()
	l := s.locks[id]
	if l == nil {
		l = &keyLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
}

func (s *Store) unlock(id uuid.UUID) {
	s.mu.Lock()
	l := s.locks[id]
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
	s.mu.Unlock()

	l.mu.Unlock()
}
