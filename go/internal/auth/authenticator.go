package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is how long a login stays valid
const DefaultSessionTTL = 12 * time.Hour

// compared against when the email is unknown
var placeholderHash, _ = bcrypt.GenerateFromPassword([]byte("placeholder"), bcrypt.MinCost)

// HashPassword returns the bcrypt hash stored for a manager password
func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// Authenticator checks manager credentials and tracks sessions in memory
type Authenticator struct {
	clock    clockwork.Clock
	ttl      time.Duration
	managers map[string][]byte

	mu       sync.Mutex
	sessions map[string]Session
}

// NewAuthenticator creates an authenticator for the given managers
func NewAuthenticator(clock clockwork.Clock, ttl time.Duration, managers ...Credentials) *Authenticator {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	m := make(map[string][]byte, len(managers))
	for _, c := range managers {
		m[normalizeEmail(c.Email)] = c.PasswordHash
	}
	return &Authenticator{
		clock:    clock,
		ttl:      ttl,
		managers: m,
		sessions: make(map[string]Session),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login opens a session for a manager. Unknown emails and wrong passwords
// fail the same way.
func (a *Authenticator) Login(_ context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	hash, ok := a.managers[email]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(placeholderHash, []byte(password))
		log.Warn().Str("email", email).Msg("login rejected")
		return Session{}, ErrIncorrectPassword
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		log.Warn().Str("email", email).Msg("login rejected")
		return Session{}, ErrIncorrectPassword
	}

	s := Session{
		Token:     uuid.NewString(),
		Email:     email,
		ExpiresAt: a.clock.Now().Add(a.ttl),
	}
	a.mu.Lock()
	a.sessions[s.Token] = s
	a.mu.Unlock()

	log.Info().Str("email", email).Time("expires_at", s.ExpiresAt).Msg("manager signed in")
	return s, nil
}

// Session returns the live session for a token
func (a *Authenticator) Session(token string) (Session, bool) {
	if token == "" {
		return Session{}, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[token]
	if !ok {
		return Session{}, false
	}
	if !a.clock.Now().Before(s.ExpiresAt) {
		delete(a.sessions, token)
		return Session{}, false
	}
	return s, true
}

// IsAuthenticated reports whether the token belongs to a live session
func (a *Authenticator) IsAuthenticated(token string) bool {
	_, ok := a.Session(token)
	return ok
}

// SignOut ends a session. Unknown tokens are ignored.
func (a *Authenticator) SignOut(token string) {
	a.mu.Lock()
	s, ok := a.sessions[token]
	delete(a.sessions, token)
	a.mu.Unlock()
	if ok {
		log.Info().Str("email", s.Email).Msg("manager signed out")
	}
}

// PurgeExpired drops expired sessions and returns how many were removed
func (a *Authenticator) PurgeExpired() int {
	now := a.clock.Now()
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for token, s := range a.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(a.sessions, token)
			n++
		}
	}
	return n
}
