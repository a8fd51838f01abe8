// Package live tracks which team is currently competing in each
// competition. The store is process-local and best-effort: it starts empty
// and is repopulated by the synchronization coordinator, so callers must not
// assume persistence across restarts.
package live

import (
	"sync"

	"github.com/rbtx/arena/internal/models"
)

// Notifier is the local "state changed" signal. Any number of observers may
// subscribe; broadcasts carry no payload and coalesce when an observer lags.
type Notifier struct {
	mu   sync.Mutex
	subs []chan struct{}
}

// Subscribe returns a channel that receives a tick after every mutation.
// The channel is buffered and never blocks the broadcaster: a slow observer
// sees rapid bursts collapsed into one pending tick.
func (n *Notifier) Subscribe() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan struct{}, 1)
	n.subs = append(n.subs, ch)
	return ch
}

func (n *Notifier) Broadcast() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Store holds at most one active session per canonical competition id.
// Absence of an entry means no team is currently competing.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]models.LiveSession
	notifier Notifier
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]models.LiveSession),
	}
}

func (s *Store) Get(competition string) (models.LiveSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[competition]
	return session, ok
}

// Set starts or replaces the session for a competition. Overwriting an
// already-live entry is expected: the external store is authoritative and
// last writer wins during reconciliation.
func (s *Store) Set(session models.LiveSession) {
	s.mu.Lock()
	s.sessions[session.Competition] = session
	s.mu.Unlock()

	s.notifier.Broadcast()
}

// SetAll replaces the whole map with a reconciled snapshot.
func (s *Store) SetAll(sessions map[string]models.LiveSession) {
	next := make(map[string]models.LiveSession, len(sessions))
	for competition, session := range sessions {
		next[competition] = session
	}

	s.mu.Lock()
	s.sessions = next
	s.mu.Unlock()

	s.notifier.Broadcast()
}

func (s *Store) Clear(competition string) {
	s.mu.Lock()
	delete(s.sessions, competition)
	s.mu.Unlock()

	s.notifier.Broadcast()
}

// Snapshot returns a copy of the current sessions for display.
func (s *Store) Snapshot() map[string]models.LiveSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.LiveSession, len(s.sessions))
	for competition, session := range s.sessions {
		out[competition] = session
	}
	return out
}

// Changes subscribes to the store's state-changed signal.
func (s *Store) Changes() <-chan struct{} {
	return s.notifier.Subscribe()
}
