// Package session holds the single source of truth for "who is logged in".
// The in-memory session mirrors two durable keys in the local database and
// survives process restarts the way the web client's localStorage did.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/entregasmx/entregas-cli/internal/entity"
)

const (
	keyUser  = "user"
	keyToken = "token"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetMany(ctx context.Context, entries map[string][]byte) error
	Clear(ctx context.Context) error
}

type Store struct {
	repo Repository

	mu       sync.RWMutex
	session  *entity.Session
	restored bool
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Restore loads the persisted session into memory. It runs once at startup,
// before anything reads session state, and never fails: missing keys, a
// user payload that does not parse, or a JWT past its expiry all degrade to
// "no session". Tokens that are not JWTs are kept as-is.
func (s *Store) Restore(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.restored = true
		s.mu.Unlock()
	}()

	rawUser, err := s.repo.Get(ctx, keyUser)
	if err != nil {
		slog.WarnContext(ctx, "session restore: read user", "error", err)
		return
	}

	rawToken, err := s.repo.Get(ctx, keyToken)
	if err != nil {
		slog.WarnContext(ctx, "session restore: read token", "error", err)
		return
	}

	if len(rawUser) == 0 || len(rawToken) == 0 {
		return
	}

	var user entity.User
	if err := json.Unmarshal(rawUser, &user); err != nil {
		slog.WarnContext(ctx, "session restore: corrupt user payload, dropping session", "error", err)
		return
	}

	token := string(rawToken)
	if tokenExpired(token) {
		slog.InfoContext(ctx, "session restore: token expired, dropping session", "user_id", user.ID)
		return
	}

	s.mu.Lock()
	s.session = &entity.Session{User: user, Token: token}
	s.mu.Unlock()
}

// Commit replaces the session in memory and persists both keys in a single
// transaction. A storage failure leaves the in-memory session updated; the
// error comes back so the caller can warn about the lost durability.
func (s *Store) Commit(ctx context.Context, user entity.User, token string) error {
	s.mu.Lock()
	s.session = &entity.Session{User: user, Token: token}
	s.mu.Unlock()

	rawUser, err := json.Marshal(user)
	if err != nil {
		return err
	}

	return s.repo.SetMany(ctx, map[string][]byte{
		keyUser:  rawUser,
		keyToken: []byte(token),
	})
}

// Clear drops the session from memory and durable storage.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	return s.repo.Clear(ctx)
}

// Current returns a copy of the active session, if any.
func (s *Store) Current() (entity.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return entity.Session{}, false
	}

	return *s.session, true
}

func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return "", false
	}

	return s.session.Token, true
}

// Restored reports whether Restore has completed. Callers must not take
// rendering decisions on session state before it turns true.
func (s *Store) Restored() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.restored
}

// tokenExpired inspects the claims without verifying the signature; the
// client has no key material and only wants to avoid presenting a token the
// server is guaranteed to reject.
func tokenExpired(token string) bool {
	var claims jwt.RegisteredClaims

	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		// Opaque token, nothing to inspect.
		return false
	}

	if claims.ExpiresAt == nil {
		return false
	}

	return claims.ExpiresAt.Before(time.Now())
}
