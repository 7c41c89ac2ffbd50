package userservice

import (
	"context"
	"sync"
	"time"
)

// MemoryCredentials keeps credentials for the lifetime of the process.
type MemoryCredentials struct {
	mu     sync.RWMutex
	users  map[string]User
	nextID int
}

func NewMemoryCredentials() *MemoryCredentials {
	return &MemoryCredentials{users: make(map[string]User), nextID: 1}
}

func (m *MemoryCredentials) Register(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.Username]; ok {
		return ErrDuplicateUsername
	}

	u.ID = m.nextID
	u.CreatedAt = time.Now().UTC()
	m.nextID++

	stored := *u
	stored.Password = Password{hash: u.Password.hash}
	m.users[u.Username] = stored

	return nil
}

func (m *MemoryCredentials) Verify(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}

	return &u, nil
}

func (m *MemoryCredentials) Exists(ctx context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.users[username]
	return ok, nil
}

// Len returns the number of registered users.
func (m *MemoryCredentials) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.users)
}
