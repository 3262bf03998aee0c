package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"replay/internal/api"
)

type memTokens struct {
	mu    sync.Mutex
	token string
	saves int
	fail  error
}

func (m *memTokens) LoadToken(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.fail
}

func (m *memTokens) SaveToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.token = token
	return m.fail
}

func (m *memTokens) ClearToken(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return m.fail
}

type fakeAuth struct {
	logins  atomic.Int32
	gate    chan struct{}
	loginFn func(api.Credentials) (string, error)
	revoked []string
}

func (f *fakeAuth) Login(_ context.Context, creds api.Credentials) (string, error) {
	f.logins.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.loginFn(creds)
}

func (f *fakeAuth) Signup(_ context.Context, req api.SignupRequest) (string, error) {
	if req.Name == "" {
		return "", errors.New("422")
	}
	return "signup-" + string(req.Role), nil
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.revoked = append(f.revoked, token)
	return errors.New("404 not found")
}

func okLogin(creds api.Credentials) (string, error) {
	if creds.Password != "pw" {
		return "", errors.New("HTTP 401")
	}
	return "abc123", nil
}

func TestHydrateReadsPersistedToken(t *testing.T) {
	tokens := &memTokens{token: " persisted \n"}
	s := New(tokens, &fakeAuth{loginFn: okLogin}, nil)
	require.False(t, s.IsLoggedIn())
	require.NoError(t, s.Hydrate(context.Background()))
	require.True(t, s.IsLoggedIn())
	require.Equal(t, "persisted", s.Token())
}

func TestLoginPersistsToken(t *testing.T) {
	ctx := context.Background()
	tokens := &memTokens{}
	s := New(tokens, &fakeAuth{loginFn: okLogin}, nil)

	require.NoError(t, s.Login(ctx, " kim@replay.kr ", "pw"))
	require.Equal(t, "abc123", s.Token())
	require.Equal(t, "abc123", tokens.token)
}

func TestLoginFailureIsAuthErrorAndLeavesSessionEmpty(t *testing.T) {
	ctx := context.Background()
	tokens := &memTokens{}
	s := New(tokens, &fakeAuth{loginFn: okLogin}, nil)

	err := s.Login(ctx, "kim@replay.kr", "wrong")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, OpLogin, authErr.Op)
	require.Equal(t, "login failed: check your email/password", err.Error())
	require.EqualError(t, errors.Unwrap(err), "HTTP 401")
	require.False(t, s.IsLoggedIn())
	require.Zero(t, tokens.saves)
}

func TestSignupFailureMessage(t *testing.T) {
	s := New(&memTokens{}, &fakeAuth{loginFn: okLogin}, nil)
	err := s.Signup(context.Background(), api.SignupRequest{Email: "a@b.c"})
	require.EqualError(t, err, "signup failed: check your input")

	require.NoError(t, s.Signup(context.Background(), api.SignupRequest{Email: "a@b.c", Name: "Kim", Role: api.RoleAdmin}))
	require.Equal(t, "signup-ADMIN", s.Token())
}

func TestConcurrentIdenticalLoginsShareOneRequest(t *testing.T) {
	auth := &fakeAuth{loginFn: okLogin, gate: make(chan struct{})}
	s := New(&memTokens{}, auth, nil)

	var wg sync.WaitGroup
	results := make([]string, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := s.RequestLogin(context.Background(), "kim@replay.kr", "pw")
			if err == nil {
				results[i] = tok
			}
		}(i)
	}
	require.Eventually(t, func() bool { return auth.logins.Load() >= 1 }, time.Second, time.Millisecond)
	// Let the second caller join the in-flight request before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(auth.gate)
	wg.Wait()

	require.Equal(t, []string{"abc123", "abc123"}, results)
	require.EqualValues(t, 1, auth.logins.Load())
}

func TestLogoutClearsLocallyEvenWhenBackendFails(t *testing.T) {
	ctx := context.Background()
	tokens := &memTokens{token: "abc123"}
	auth := &fakeAuth{loginFn: okLogin}
	s := New(tokens, auth, nil)
	require.NoError(t, s.Hydrate(ctx))

	prev, err := s.Logout(ctx)
	require.NoError(t, err)
	require.Equal(t, "abc123", prev)
	require.False(t, s.IsLoggedIn())
	require.Empty(t, tokens.token)

	s.Revoke(ctx, prev)
	require.Equal(t, []string{"abc123"}, auth.revoked)
	require.False(t, s.IsLoggedIn())

	s.Revoke(ctx, "")
	require.Len(t, auth.revoked, 1)
}

func TestSetTokenReportsPersistFailure(t *testing.T) {
	tokens := &memTokens{fail: errors.New("disk full")}
	s := New(tokens, nil, nil)
	err := s.SetToken(context.Background(), "abc")
	require.ErrorContains(t, err, "disk full")
	require.Equal(t, "abc", s.Token())
}

func TestClaimsFromJWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  42,
		"role": "ADMIN",
		"exp":  exp.Unix(),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)

	s := New(&memTokens{}, nil, nil)
	require.NoError(t, s.SetToken(context.Background(), signed))
	c, ok := s.Claims()
	require.True(t, ok)
	require.Equal(t, "42", c.Subject)
	require.Equal(t, "ADMIN", c.Role)
	require.True(t, c.ExpiresAt.Equal(exp))
	require.False(t, c.Expired(time.Now()))

	_, ok = ParseClaims("abc123")
	require.False(t, ok)
}
