package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// Session is the single process-wide identity object. Components receive it
// at construction instead of reading ambient storage; when the bearer
// credential changes, registered listeners rebuild whatever they derived
// from it (the chat connection in particular).
type Session struct {
	mu       sync.Mutex
	token    string
	subject  string
	expiry   time.Time
	onChange []func()
}

func New(token string) *Session {
	s := &Session{}
	s.apply(token)
	return s
}

// Token returns the current bearer credential.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) Subject() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subject
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiry
}

// SetToken swaps the credential and notifies listeners when it actually
// changed.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	if token == s.token {
		s.mu.Unlock()
		return
	}
	s.applyLocked(token)
	handlers := make([]func(), len(s.onChange))
	copy(handlers, s.onChange)
	s.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// OnChange registers a listener for credential changes.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *Session) apply(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(token)
}

// applyLocked introspects the bearer without verifying it; the backend is
// the verifier, the console only needs the subject and expiry.
func (s *Session) applyLocked(token string) {
	s.token = token
	s.subject = ""
	s.expiry = time.Time{}
	if token == "" {
		return
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		logrus.WithError(err).Debug("bearer token is not a parseable JWT")
		return
	}
	if sub, err := claims.GetSubject(); err == nil {
		s.subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.expiry = exp.Time
	}
}
