// Package session maps opaque identifiers to per-document vector indexes and
// evicts entries that stay idle beyond a TTL.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"docchat/internal/vectorindex"
)

// ErrNotFound indicates the session id was never issued or has been reaped.
var ErrNotFound = errors.New("session not found")

// Entry binds a session id to one document's vector index. The index is
// immutable, so a handle returned by Acquire stays valid for the rest of the
// request even if the reaper removes the map slot concurrently.
type Entry struct {
	id       string
	index    *vectorindex.Index
	lastUsed time.Time // guarded by the owning store's mutex
}

func (e *Entry) ID() string                { return e.id }
func (e *Entry) Index() *vectorindex.Index { return e.index }

// Store is the process-wide, in-memory session map.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Entry
	now      func() time.Time
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock injects the clock used for last-used stamps and reaping.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{sessions: make(map[string]*Entry), now: now}
}

// Create allocates a fresh unique id for a fully built index. Ids are never
// reused; each upload yields a brand-new session.
func (s *Store) Create(index *vectorindex.Index) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.sessions[id] = &Entry{id: id, index: index, lastUsed: s.now()}
	return id
}

// Acquire looks up an entry for query use and refreshes its idle clock.
func (s *Store) Acquire(id string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	entry.lastUsed = s.now()
	return entry, nil
}

// Peek looks up an entry without refreshing its idle clock.
func (s *Store) Peek(id string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[id]
	return entry, ok
}

// LastUsed reports the entry's last-used stamp.
func (s *Store) LastUsed(id string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[id]
	if !ok {
		return time.Time{}, false
	}
	return entry.lastUsed, true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Reap removes every entry idle longer than ttl and returns the eviction
// count.
func (s *Store) Reap(ttl time.Duration) int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, entry := range s.sessions {
		if now.Sub(entry.lastUsed) > ttl {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}
