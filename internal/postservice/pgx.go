package postservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolModel is the Store backed by a pgx connection pool.
type PoolModel struct {
	pool *pgxpool.Pool
}

func NewPoolModel(pool *pgxpool.Pool) *PoolModel {
	return &PoolModel{pool: pool}
}

func (m *PoolModel) List(ctx context.Context) ([]Post, error) {
	rows, err := m.pool.Query(ctx, selectPostsQuery)
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

	return posts, rows.Err()
}

func (m *PoolModel) Get(ctx context.Context, id int) (*Post, error) {
	post, err := scanPost(m.pool.QueryRow(ctx, selectPostQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}

	return post, nil
}

func (m *PoolModel) Insert(ctx context.Context, p *Post) error {
	err := m.pool.QueryRow(ctx, insertPostQuery, p.Title, p.Content, createdAtArg(p.CreatedAt)).Scan(&p.ID, &p.CreatedAt, &p.Likes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCreateFailed
		}
		return fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}

	p.CreatedAt = p.CreatedAt.UTC()
	return nil
}

func (m *PoolModel) IncrementLikes(ctx context.Context, id int) (int, error) {
	var likes int
	err := m.pool.QueryRow(ctx, incrementLikesQuery, id).Scan(&likes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrRecordNotFound
		}
		return 0, fmt.Errorf("like post %d: %w", id, err)
	}

	return likes, nil
}
