// Package session owns the bearer token: it hydrates it from persisted
// storage, exchanges credentials for it and clears it on logout.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"replay/internal/api"
)

// TokenStore persists the token between runs.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Authenticator is the subset of the API client the session needs.
type Authenticator interface {
	Login(ctx context.Context, creds api.Credentials) (string, error)
	Signup(ctx context.Context, req api.SignupRequest) (string, error)
	Logout(ctx context.Context, token string) error
}

const (
	OpLogin  = "login"
	OpSignup = "signup"
)

// AuthError is a failed login or signup. Its message is the one shown to the
// user; the cause is kept for logs.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	if e.Op == OpSignup {
		return "signup failed: check your input"
	}
	return "login failed: check your email/password"
}

func (e *AuthError) Unwrap() error { return e.Err }

type Store struct {
	mu     sync.RWMutex
	token  string
	tokens TokenStore
	auth   Authenticator
	logger *slog.Logger
	flight singleflight.Group
}

func New(tokens TokenStore, auth Authenticator, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{tokens: tokens, auth: auth, logger: logger}
}

// Hydrate loads the persisted token, if any.
func (s *Store) Hydrate(ctx context.Context) error {
	if s.tokens == nil {
		return nil
	}
	tok, err := s.tokens.LoadToken(ctx)
	if err != nil {
		return fmt.Errorf("hydrate session: %w", err)
	}
	s.mu.Lock()
	s.token = strings.TrimSpace(tok)
	s.mu.Unlock()
	return nil
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) IsLoggedIn() bool {
	return s.Token() != ""
}

// SetToken replaces the token in memory and persists it before returning.
// An empty token is treated as Clear.
func (s *Store) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Clear(ctx)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	if s.tokens == nil {
		return nil
	}
	if err := s.tokens.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	if s.tokens == nil {
		return nil
	}
	if err := s.tokens.ClearToken(ctx); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// RequestLogin exchanges credentials for a token without touching the session.
// Identical concurrent submissions share one request.
func (s *Store) RequestLogin(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	v, err, _ := s.flight.Do(OpLogin+"\x00"+email+"\x00"+password, func() (any, error) {
		return s.auth.Login(ctx, api.Credentials{Email: email, Password: password})
	})
	if err != nil {
		s.logger.Warn("login failed", "email", email, "err", err)
		return "", &AuthError{Op: OpLogin, Err: err}
	}
	return v.(string), nil
}

func (s *Store) RequestSignup(ctx context.Context, req api.SignupRequest) (string, error) {
	req.Email = strings.TrimSpace(req.Email)
	v, err, _ := s.flight.Do(OpSignup+"\x00"+req.Email, func() (any, error) {
		return s.auth.Signup(ctx, req)
	})
	if err != nil {
		s.logger.Warn("signup failed", "email", req.Email, "role", req.Role, "err", err)
		return "", &AuthError{Op: OpSignup, Err: err}
	}
	return v.(string), nil
}

// Login is RequestLogin followed by SetToken.
func (s *Store) Login(ctx context.Context, email, password string) error {
	tok, err := s.RequestLogin(ctx, email, password)
	if err != nil {
		return err
	}
	return s.SetToken(ctx, tok)
}

func (s *Store) Signup(ctx context.Context, req api.SignupRequest) error {
	tok, err := s.RequestSignup(ctx, req)
	if err != nil {
		return err
	}
	return s.SetToken(ctx, tok)
}

// Logout clears the token locally and returns the one that was active so the
// caller can Revoke it.
func (s *Store) Logout(ctx context.Context) (string, error) {
	prev := s.Token()
	return prev, s.Clear(ctx)
}

// Revoke tells the backend about a logout. Failures are logged and dropped.
func (s *Store) Revoke(ctx context.Context, token string) {
	if token == "" || s.auth == nil {
		return
	}
	if err := s.auth.Logout(ctx, token); err != nil {
		s.logger.Debug("backend logout ignored", "err", err)
	}
}
