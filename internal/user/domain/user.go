package domain

import (
	"errors"
	"time"
)

// ErrDuplicate reports a persistence conflict on a unique user field
// (email, username, or provider identity).
var ErrDuplicate = errors.New("user already exists")

// User is the core principal entity. A user is created either locally (email +
// password hash) or from a federated provider profile (provider + provider id,
// no password hash).
type User struct {
	ID           string
	Email        string
	Name         string
	Username     string // optional
	AvatarURL    string // optional
	Role         string // optional; embedded in token claims when set
	Provider     AuthProvider
	ProviderID   string // subject id at the federated provider; empty for local
	PasswordHash string // empty for federated accounts
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthProvider tags how the user's identity was established.
type AuthProvider string

const (
	AuthProviderLocal  AuthProvider = "local"
	AuthProviderGoogle AuthProvider = "google"
)

// Validate validates the user for persistence. Returns an error describing the
// first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Provider == "" {
		u.Provider = AuthProviderLocal
	}
	if u.Provider != AuthProviderLocal && u.ProviderID == "" {
		return errors.New("provider id is required for federated users")
	}
	return nil
}
