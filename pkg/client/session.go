package client

import (
	"context"
	"errors"
	"sync"
)

// ErrNoToken is returned by Init when the session has no token.
var ErrNoToken = errors.New("calibrate: no token")

// Session owns the bearer token and the user it belongs to.
type Session struct {
	mu     sync.RWMutex
	token  string
	user   *User
	client *Client
}

// NewSession creates a session for the API at baseURL. token may be empty.
func NewSession(baseURL, token string, opts ...Option) *Session {
	s := &Session{token: token}
	s.client = New(baseURL, opts...)
	s.client.tokenFn = s.Token
	return s
}

// Client returns the API client authenticated by this session.
func (s *Session) Client() *Client {
	return s.client
}

// Token returns the current bearer token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the cached current user, nil when logged out.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Init loads the current user for an existing token. A rejected token logs
// the session out.
func (s *Session) Init(ctx context.Context) (*User, error) {
	if s.Token() == "" {
		return nil, ErrNoToken
	}

	user, err := s.client.Me(ctx)
	if err != nil {
		if IsUnauthorized(err) {
			s.Logout()
		}
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return user, nil
}

// Login switches the session to token and loads its user. The previous state
// is kept when the token is rejected.
func (s *Session) Login(ctx context.Context, token string) (*User, error) {
	user, err := New(s.client.baseURL, WithHTTPClient(s.client.httpClient), WithToken(token)).Me(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return user, nil
}

// Logout clears the token and the cached user.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
}
