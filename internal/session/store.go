package session

import (
	"context"
	"sync"
	"time"

	"poster-shop/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CookieName is the cookie carrying the session token
const CookieName = "session"

// Session is an authenticated user's bearer session
type Session struct {
	Token     string
	UserID    string
	Username  string
	ExpiresAt time.Time
}

// Store keeps sessions in process memory. The service is single-process, so
// nothing external is needed; restarting the server logs everyone out.
type Store struct {
	mu       sync.Mutex
	sessions map[string]Session
	logger   *zap.Logger
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]Session),
		logger:   util.GetLogger(),
	}
}

// Create issues a new session token for the user
func (s *Store) Create(userID, username string, ttl time.Duration) Session {
	session := Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		Username:  username,
		ExpiresAt: time.Now().Add(ttl),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}

// Get returns the session for token, expiring it lazily if its deadline has
// passed
func (s *Store) Get(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return Session{}, false
	}
	if time.Now().After(session.ExpiresAt) {
		delete(s.sessions, token)
		return Session{}, false
	}
	return session, true
}

// Delete removes the session for token, if any
func (s *Store) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Prune drops all expired sessions and returns how many were removed
func (s *Store) Prune() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// PruneLoop sweeps expired sessions until ctx is cancelled
func (s *Store) PruneLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Prune(); removed > 0 {
				s.logger.Debug("Pruned expired sessions", zap.Int("removed", removed))
			}
		}
	}
}
