package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matst80/slask-gallery/pkg/listing"
)

const DefaultSessionTTL = 30 * time.Minute

type sessionEntry struct {
	listing *listing.Listing
	touched time.Time
}

// SessionStore keeps the listing of every active visitor in memory.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *SessionStore) Create(l *listing.Listing) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	id := uuid.NewString()
	s.sessions[id] = &sessionEntry{listing: l, touched: s.now()}
	activeSessions.Set(float64(len(s.sessions)))
	return id
}

func (s *SessionStore) Get(id string) (*listing.Listing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.now().Sub(entry.touched) > s.ttl {
		delete(s.sessions, id)
		activeSessions.Set(float64(len(s.sessions)))
		return nil, false
	}
	entry.touched = s.now()
	return entry.listing, true
}

func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	activeSessions.Set(float64(len(s.sessions)))
	return ok
}

func (s *SessionStore) evictLocked() int {
	now := s.now()
	evicted := 0
	for id, entry := range s.sessions {
		if now.Sub(entry.touched) > s.ttl {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Evict drops sessions that have not been used within the ttl.
func (s *SessionStore) Evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := s.evictLocked()
	activeSessions.Set(float64(len(s.sessions)))
	return evicted
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
