package postservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	selectPostsQuery = `
		SELECT id, title, content, created_at, likes
		FROM "Posts"
		ORDER BY created_at DESC, id DESC`

	selectPostQuery = `
		SELECT id, title, content, created_at, likes
		FROM "Posts"
		WHERE id = $1`

	insertPostQuery = `
		INSERT INTO "Posts" (title, content, created_at)
		VALUES ($1, $2, COALESCE($3::timestamptz, NOW()))
		RETURNING id, created_at, likes`

	incrementLikesQuery = `
		UPDATE "Posts"
		SET likes = likes + 1
		WHERE id = $1
		RETURNING likes`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*Post, error) {
	var post Post
	err := row.Scan(&post.ID, &post.Title, &post.Content, &post.CreatedAt, &post.Likes)
	if err != nil {
		return nil, err
	}

	post.CreatedAt = post.CreatedAt.UTC()
	return &post, nil
}

// createdAtArg maps a zero time to NULL so the column default applies.
func createdAtArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// PostModel is the Store backed by database/sql and the lib/pq driver.
type PostModel struct {
	db *sql.DB
}

func NewPostModel(db *sql.DB) *PostModel {
	return &PostModel{db: db}
}

func (m *PostModel) List(ctx context.Context) ([]Post, error) {
	rows, err := m.db.QueryContext(ctx, selectPostsQuery)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (m *PostModel) Get(ctx context.Context, id int) (*Post, error) {
	post, err := scanPost(m.db.QueryRowContext(ctx, selectPostQuery, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, fmt.Errorf("get post %d: %w", id, err)
		}
	}

	return post, nil
}

func (m *PostModel) Insert(ctx context.Context, p *Post) error {
	err := m.db.QueryRowContext(ctx, insertPostQuery, p.Title, p.Content, createdAtArg(p.CreatedAt)).Scan(&p.ID, &p.CreatedAt, &p.Likes)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrCreateFailed
		default:
			return fmt.Errorf("%w: %w", ErrCreateFailed, err)
		}
	}

	p.CreatedAt = p.CreatedAt.UTC()
	return nil
}

func (m *PostModel) IncrementLikes(ctx context.Context, id int) (int, error) {
	var likes int
	err := m.db.QueryRowContext(ctx, incrementLikesQuery, id).Scan(&likes)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return 0, ErrRecordNotFound
		default:
			return 0, fmt.Errorf("like post %d: %w", id, err)
		}
	}

	return likes, nil
}
