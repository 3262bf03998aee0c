// Package auth composes the session with the auth screen stack, the
// login-required gate and the signup role selection.
//
// A Provider is owned by the UI loop and is not safe for concurrent use.
// Network work happens elsewhere; results are applied through CompleteAuth.
package auth

import (
	"context"
	"io"
	"log/slog"

	"replay/internal/api"
)

// Session is the token holder the provider drives.
type Session interface {
	Token() string
	IsLoggedIn() bool
	SetToken(ctx context.Context, token string) error
	Logout(ctx context.Context) (string, error)
}

type Provider struct {
	session    Session
	stack      Stack
	gate       Gate
	role       api.Role
	submitting bool
	logger     *slog.Logger
}

func NewProvider(s Session, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Provider{session: s, role: api.RoleUser, logger: logger}
	p.stack.Reset()
	return p
}

func (p *Provider) IsLoggedIn() bool { return p.session.IsLoggedIn() }

func (p *Provider) Token() string { return p.session.Token() }

func (p *Provider) Screen() Screen { return p.stack.Current() }

func (p *Provider) Frames() []Screen { return p.stack.Frames() }

func (p *Provider) OpenLogin()      { p.stack.Push(ScreenLogin) }
func (p *Provider) OpenSignupRole() { p.stack.Push(ScreenSignupRole) }
func (p *Provider) OpenSignupForm() { p.stack.Push(ScreenSignupForm) }

// Back pops one auth screen.
func (p *Provider) Back() { p.stack.Pop() }

func (p *Provider) CloseAll() { p.stack.Reset() }

func (p *Provider) RequireLogin(action func()) {
	p.gate.Require(p.session.IsLoggedIn(), action)
}

func (p *Provider) PromptOpen() bool { return p.gate.PromptOpen() }

func (p *Provider) HasPending() bool { return p.gate.HasPending() }

func (p *Provider) DismissPrompt() { p.gate.Dismiss() }

// GoToLogin closes the prompt and opens the login screen, keeping the
// pending action for after the login.
func (p *Provider) GoToLogin() {
	p.gate.ClosePrompt()
	p.stack.Push(ScreenLogin)
}

func (p *Provider) SignupRole() api.Role { return p.role }

func (p *Provider) SetSignupRole(r api.Role) {
	if r != api.RoleAdmin {
		r = api.RoleUser
	}
	p.role = r
}

// BeginSubmit reports false when an auth request is already in flight.
func (p *Provider) BeginSubmit() bool {
	if p.submitting {
		return false
	}
	p.submitting = true
	return true
}

func (p *Provider) EndSubmit() { p.submitting = false }

func (p *Provider) Submitting() bool { return p.submitting }

// CompleteAuth applies a successful login or signup in one step: the token is
// stored, every auth screen and the prompt close, and the pending action runs
// once. A persistence failure is returned after the rest has been applied.
func (p *Provider) CompleteAuth(ctx context.Context, token string) error {
	err := p.session.SetToken(ctx, token)
	if err != nil {
		p.logger.Error("persist token", "err", err)
	}
	p.submitting = false
	p.stack.Reset()
	p.gate.ClosePrompt()
	if act := p.gate.Take(); act != nil {
		act()
	}
	return err
}

// Logout clears the session only; navigation state and the gate are left
// alone. It returns the previous token for a best-effort backend revoke.
func (p *Provider) Logout(ctx context.Context) (string, error) {
	return p.session.Logout(ctx)
}
