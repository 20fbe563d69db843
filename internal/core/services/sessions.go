package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driving"
)

// Ensure SessionRegistry implements the interface.
var _ driving.SessionRegistry = (*SessionRegistry)(nil)

// SessionConfig bounds the registry. Zero values take the domain defaults.
type SessionConfig struct {
	// IdleTTL is how long a session survives without a turn.
	IdleTTL time.Duration

	// MaxSessions caps live sessions. Creating one more evicts the
	// least recently used.
	MaxSessions int
}

type session struct {
	mu       sync.Mutex
	state    domain.SessionState
	lastUsed time.Time // guarded by SessionRegistry.mu
}

// SessionRegistry keeps router state per conversation.
// Turns on one session are serialised; different sessions run in parallel.
// Idle sessions expire after the TTL and the registry never holds more
// than MaxSessions entries.
type SessionRegistry struct {
	mu        sync.Mutex
	sessions  map[string]*session
	ttl       time.Duration
	max       int
	lastSweep time.Time
	now       func() time.Time
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry(cfg SessionConfig) *SessionRegistry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = domain.DefaultSessionTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = domain.DefaultMaxSessions
	}
	return &SessionRegistry{
		sessions: make(map[string]*session),
		ttl:      cfg.IdleTTL,
		max:      cfg.MaxSessions,
		now:      time.Now,
	}
}

// NewSession allocates a session and returns its id.
func (r *SessionRegistry) NewSession() string {
	id := uuid.New().String()
	r.get(id)
	return id
}

// Turn runs fn while holding the session's lock.
// An expired session is replaced by a fresh one.
func (r *SessionRegistry) Turn(id string, fn func(state *domain.SessionState)) {
	s := r.get(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// Drop forgets a session.
func (r *SessionRegistry) Drop(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(r.now())
	return len(r.sessions)
}

func (r *SessionRegistry) get(id string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if s, ok := r.sessions[id]; ok && !r.expired(s, now) {
		s.lastUsed = now
		return s
	}
	delete(r.sessions, id)

	// Expired entries linger at most one TTL past their deadline.
	if now.Sub(r.lastSweep) >= r.ttl || len(r.sessions) >= r.max {
		r.sweepLocked(now)
	}
	if len(r.sessions) >= r.max {
		r.evictOldestLocked()
	}

	s := &session{lastUsed: now}
	r.sessions[id] = s
	return s
}

func (r *SessionRegistry) expired(s *session, now time.Time) bool {
	return now.Sub(s.lastUsed) > r.ttl
}

func (r *SessionRegistry) sweepLocked(now time.Time) {
	for id, s := range r.sessions {
		if r.expired(s, now) {
			delete(r.sessions, id)
		}
	}
	r.lastSweep = now
}

func (r *SessionRegistry) evictOldestLocked() {
	var (
		oldestID string
		oldest   *session
	)
	for id, s := range r.sessions {
		if oldest == nil || s.lastUsed.Before(oldest.lastUsed) {
			oldestID, oldest = id, s
		}
	}
	if oldest != nil {
		delete(r.sessions, oldestID)
	}
}
