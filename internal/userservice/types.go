package userservice

import (
	"context"
	"time"
)

const (
	SessionTokenLength = 26

	DefaultSessionTTL time.Duration = 24 * time.Hour
)

var (
	AnonymousUser = User{}
)

type UserService struct {
	credentials CredentialStore
	sessions    SessionStore
	ttl         time.Duration
}

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Password  Password  `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte `json:"-"`
}

// Session is the server-side record behind a session cookie.
type Session struct {
	Plain    string    `json:"-"`
	Hash     []byte    `json:"-"`
	Username string    `json:"username"`
	Expiry   time.Time `json:"expiry"`
}

// CredentialStore owns the registered usernames and their password hashes.
type CredentialStore interface {
	// Register stores u. It returns ErrDuplicateUsername if the name is taken.
	Register(ctx context.Context, u *User) error
	// Verify returns the stored user, or ErrNotFound.
	Verify(ctx context.Context, username string) (*User, error)
	Exists(ctx context.Context, username string) (bool, error)
}

// SessionStore maps hashed session tokens to usernames.
type SessionStore interface {
	// Create stores s until s.Expiry. A zero Expiry never expires.
	Create(ctx context.Context, s *Session) error
	// Get returns ErrSessionNotFound for unknown or expired tokens.
	Get(ctx context.Context, hash []byte) (*Session, error)
	Delete(ctx context.Context, hash []byte) error
}
