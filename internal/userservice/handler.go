package userservice

import (
	"context"
	"errors"
	"time"

	"github.com/sushihentaime/blogboard/internal/common"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// NewUserService wires the credential and session stores. A ttl of 0 keeps
// sessions until logout.
func NewUserService(credentials CredentialStore, sessions SessionStore, ttl time.Duration) *UserService {
	return &UserService{
		credentials: credentials,
		sessions:    sessions,
		ttl:         ttl,
	}
}

// RegisterUser validates and stores a new credential.
func (s *UserService) RegisterUser(ctx context.Context, username, password string) (*User, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	exists, err := s.credentials.Exists(ctx, username)
	if err != nil {
		return nil, err
	}

	if exists {
		return nil, ErrDuplicateUsername
	}

	u := User{Username: username}

	err = u.Password.set(password)
	if err != nil {
		return nil, err
	}
	u.Password.Plain = ""

	// Register repeats the uniqueness check for concurrent registrations.
	err = s.credentials.Register(ctx, &u)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// LoginUser checks the credentials and returns the plain token of a new session.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.credentials.Verify(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrInvalidCredentials
		default:
			return nil, err
		}
	}

	ok, err := user.Password.matches(password)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrInvalidCredentials
	}

	session, err := newSession(user.Username, s.ttl)
	if err != nil {
		return nil, err
	}

	err = s.sessions.Create(ctx, session)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// LogoutUser removes the session behind token. Unknown tokens are ignored.
func (s *UserService) LogoutUser(ctx context.Context, token string) error {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return nil
	}

	return s.sessions.Delete(ctx, hashToken(token))
}

// GetUserBySession resolves a session token to its user.
func (s *UserService) GetUserBySession(ctx context.Context, token string) (*User, error) {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return nil, ErrSessionNotFound
	}

	session, err := s.sessions.Get(ctx, hashToken(token))
	if err != nil {
		return nil, err
	}

	if !session.Expiry.IsZero() && time.Now().After(session.Expiry) {
		_ = s.sessions.Delete(ctx, session.Hash)
		return nil, ErrSessionNotFound
	}

	user, err := s.credentials.Verify(ctx, session.Username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrSessionNotFound
		default:
			return nil, err
		}
	}

	user.Password = Password{}

	return user, nil
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}
