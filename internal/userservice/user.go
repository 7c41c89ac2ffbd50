package userservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrNotFound          = errors.New("user not found")
)

const uniqueViolation = "23505"

// DBModel is the CredentialStore backed by the users table.
type DBModel struct {
	db *sql.DB
}

func NewUserModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

func (m *DBModel) Register(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (username, password)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := m.db.QueryRowContext(ctx, query, u.Username, u.Password.hash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		switch {
		case errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == "users_username_key":
			return ErrDuplicateUsername
		default:
			return fmt.Errorf("insert user: %w", err)
		}
	}

	return nil
}

func (m *DBModel) Verify(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT id, username, password, created_at
		FROM users
		WHERE username = $1`

	var u User

	err := m.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.Password.hash, &u.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, fmt.Errorf("get user: %w", err)
		}
	}

	return &u, nil
}

func (m *DBModel) Exists(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	err := m.db.QueryRowContext(ctx, query, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}

	return exists, nil
}
