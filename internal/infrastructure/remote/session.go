package remote

import (
	"context"
	"errors"
	"sync"

	"github.com/garyjia/invoice-intake/internal/application/port"
)

// ErrNoSession is returned once the token has been rejected by the server
var ErrNoSession = errors.New("no valid session: sign in again")

// StaticSession serves a token read from configuration. Once the server
// rejects it, every later call fails until Reset is called.
type StaticSession struct {
	mu      sync.Mutex
	token   string
	revoked bool
}

// NewStaticSession creates a session provider for token
func NewStaticSession(token string) *StaticSession {
	return &StaticSession{token: token}
}

var _ port.SessionProvider = (*StaticSession)(nil)

// Token returns the configured token
func (s *StaticSession) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.revoked {
		return "", ErrNoSession
	}
	return s.token, nil
}

// Invalidate marks the token as rejected
func (s *StaticSession) Invalidate() {
	s.mu.Lock()
	s.revoked = true
	s.mu.Unlock()
}

// Reset installs a new token
func (s *StaticSession) Reset(token string) {
	s.mu.Lock()
	s.token = token
	s.revoked = false
	s.mu.Unlock()
}
