// Package session owns the process-wide authenticated identity. The store
// is single-writer (only Login and Logout mutate it, both driven by discrete
// user actions) and many-reader: every authorization check and every
// outbound request reads the current session. The persisted pair of keys is
// restored synchronously at startup so route guards can decide access before
// anything renders.
package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"

	"combinator-portal/internal/common/errors"
	"combinator-portal/internal/common/logger"
	"combinator-portal/internal/models"
)

// AuthAPI is the slice of the backend client the store needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Register(ctx context.Context, name, email, password string) error
}

type Store struct {
	mu          sync.RWMutex
	persistence Persistence
	auth        AuthAPI
	log         logger.Logger
	current     *models.Session
}

func NewStore(persistence Persistence, log logger.Logger) *Store {
	return &Store{persistence: persistence, log: log}
}

// UseAuth binds the backend client. Separate from construction because the
// HTTP adapter reads tokens from this store, so the store must exist before
// the client that performs logins can be built.
func (s *Store) UseAuth(auth AuthAPI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = auth
}

// Restore loads the persisted session. A missing or torn key pair leaves
// the store unauthenticated; only a storage-level failure is an error.
func (s *Store) Restore(ctx context.Context) error {
	token, err := s.persistence.Get(ctx, KeyToken)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	userData, err := s.persistence.Get(ctx, KeyUserData)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			s.log.Warn("persisted token without user record, staying logged out", nil)
			return nil
		}
		return err
	}

	var user models.User
	if err := json.Unmarshal([]byte(userData), &user); err != nil {
		s.log.Warn("persisted user record is corrupt, staying logged out", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	s.mu.Lock()
	s.current = &models.Session{User: user, Token: token}
	s.mu.Unlock()

	s.log.Info("session restored", map[string]interface{}{
		"userId":  user.ID,
		"isAdmin": user.IsAdmin,
	})
	return nil
}

// Login authenticates against the backend and swaps in the new session. On
// failure the store is left untouched and the backend's message travels up
// verbatim inside the auth error.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.mu.RLock()
	auth := s.auth
	s.mu.RUnlock()
	if auth == nil {
		return errors.NewAuthError("authentication is not available", 0)
	}

	user, token, err := auth.Login(ctx, email, password)
	if err != nil {
		return err
	}

	userData, err := json.Marshal(user)
	if err != nil {
		return err
	}
	// Persistence failures degrade durability, not the live session.
	if err := s.persistence.Set(ctx, KeyToken, token); err != nil {
		s.log.Warn("failed to persist token", map[string]interface{}{"error": err.Error()})
	}
	if err := s.persistence.Set(ctx, KeyUserData, string(userData)); err != nil {
		s.log.Warn("failed to persist user record", map[string]interface{}{"error": err.Error()})
	}

	s.mu.Lock()
	s.current = &models.Session{User: *user, Token: token}
	s.mu.Unlock()

	s.log.Info("logged in", map[string]interface{}{
		"userId":  user.ID,
		"isAdmin": user.IsAdmin,
	})
	return nil
}

// Register creates an account. It never authenticates; the caller routes to
// login on success.
func (s *Store) Register(ctx context.Context, name, email, password string) error {
	s.mu.RLock()
	auth := s.auth
	s.mu.RUnlock()
	if auth == nil {
		return errors.NewAuthError("authentication is not available", 0)
	}
	return auth.Register(ctx, name, email, password)
}

// Logout clears the in-memory and persisted session unconditionally. No
// network call is involved; it cannot fail from the caller's perspective.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := s.persistence.Delete(ctx, KeyToken, KeyUserData); err != nil {
		s.log.Warn("failed to clear persisted session", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.log.Info("logged out", nil)
}

// Current returns a copy of the active session, nil when logged out.
func (s *Store) Current() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Token implements httpclient.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}
