package auth

import (
	"crypto/rand"
	"sync"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

// Session is an issued bearer token. For operators Subject is the bus id the
// token may edit; for admins it is empty.
type Session struct {
	Token     string    `json:"token"`
	Role      Role      `json:"role"`
	Principal string    `json:"principal"`
	Subject   string    `json:"subject,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Sessions keeps issued tokens in memory until they expire.
type Sessions struct {
	mu          sync.Mutex
	sessions    map[string]Session
	ttl         time.Duration
	cleanupTick *time.Ticker
	done        chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

func NewSessions(ttl, cleanupInterval time.Duration) *Sessions {
	s := &Sessions{
		sessions:    make(map[string]Session),
		ttl:         ttl,
		cleanupTick: time.NewTicker(cleanupInterval),
		done:        make(chan struct{}),
		now:         time.Now,
	}
	go s.cleanup()
	return s
}

func (s *Sessions) Issue(role Role, principal, subject string) Session {
	session := Session{
		Token:     rand.Text(),
		Role:      role,
		Principal: principal,
		Subject:   subject,
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}

// Lookup returns the live session for token. Expired sessions are dropped.
func (s *Sessions) Lookup(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return Session{}, false
	}
	if !s.now().Before(session.ExpiresAt) {
		delete(s.sessions, token)
		return Session{}, false
	}
	return session, true
}

func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sessions) cleanup() {
	for {
		select {
		case <-s.cleanupTick.C:
			s.removeExpired()
		case <-s.done:
			return
		}
	}
}

func (s *Sessions) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for token, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// Stop stops the cleanup goroutine
func (s *Sessions) Stop() {
	s.stopOnce.Do(func() {
		s.cleanupTick.Stop()
		close(s.done)
	})
}
