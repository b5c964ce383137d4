package auth

import (
	"errors"
	"time"
)

var (
	// ErrIncorrectPassword is shown inline on the login form for any failed login
	ErrIncorrectPassword = errors.New("Incorrect password")
	ErrNotAuthenticated  = errors.New("not authenticated")
)

// Credentials identifies a manager allowed to edit the map
type Credentials struct {
	Email        string
	PasswordHash []byte
}

// Session is an authenticated manager session
type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}
