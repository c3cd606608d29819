package session

import (
	"chat-desk/domain"
	"log/slog"
	"strings"
	"sync"
)

const (
	LoginPath     = "/auth/login"
	SignupPath    = "/auth/signup"
	DashboardPath = "/dashboard"
	ChatPrefix    = "/chat/"
)

// Persister receives the session snapshot after every mutation.
type Persister interface {
	SaveSession(snapshot domain.SessionSnapshot) error
}

// Store holds the signed-in user, if any.
type Store struct {
	mu        sync.RWMutex
	log       *slog.Logger
	persister Persister
	user      *domain.User
	dirty     bool
}

func NewStore(log *slog.Logger, persister Persister) *Store {
	return &Store{log: log, persister: persister}
}

// Restore loads a persisted snapshot. A user not flagged as authenticated is discarded.
func (s *Store) Restore(snapshot domain.SessionSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snapshot.User == nil || !snapshot.User.IsAuthenticated {
		s.user = nil
		return
	}
	user := *snapshot.User
	s.user = &user
}

// Login replaces the current session unconditionally.
func (s *Store) Login(user domain.User) {
	user.IsAuthenticated = true
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	s.persistLocked()
	s.log.Info("User logged in", "user", user.ID, "country", user.CountryCode)
}

func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		s.log.Info("User logged out", "user", s.user.ID)
	}
	s.user = nil
	s.persistLocked()
}

// Current returns a copy of the signed-in user.
func (s *Store) Current() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsAuthenticated
}

func (s *Store) Snapshot() domain.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Redirect applies the route guard to a requested path.
// It returns the path to show instead and true when the request must be redirected.
func (s *Store) Redirect(path string) (string, bool) {
	authenticated := s.IsAuthenticated()
	switch {
	case path == "" || path == "/":
		if authenticated {
			return DashboardPath, true
		}
		return LoginPath, true
	case path == DashboardPath || strings.HasPrefix(path, ChatPrefix):
		if !authenticated {
			return LoginPath, true
		}
	case path == LoginPath || path == SignupPath:
		if authenticated {
			return DashboardPath, true
		}
	}
	return path, false
}

func (s *Store) persistLocked() {
	if err := s.persister.SaveSession(s.snapshotLocked()); err != nil {
		s.dirty = true
		s.log.Error("Session not persisted, keeping it in memory", "error", err)
		return
	}
	s.dirty = false
}

func (s *Store) snapshotLocked() domain.SessionSnapshot {
	if s.user == nil {
		return domain.SessionSnapshot{}
	}
	user := *s.user
	return domain.SessionSnapshot{User: &user}
}
