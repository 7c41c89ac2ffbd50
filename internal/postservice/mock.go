package postservice

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests.
type MemoryStore struct {
	mu     sync.Mutex
	posts  map[int]Post
	nextID int

	// Err, when set, is returned by every operation.
	Err error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{posts: make(map[int]Post), nextID: 1}
}

func (m *MemoryStore) List(ctx context.Context) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	posts := make([]Post, 0, len(m.posts))
	for _, p := range m.posts {
		posts = append(posts, p)
	}

	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	return posts, nil
}

func (m *MemoryStore) Get(ctx context.Context, id int) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	p, ok := m.posts[id]
	if !ok {
		return nil, ErrRecordNotFound
	}

	return &p, nil
}

func (m *MemoryStore) Insert(ctx context.Context, p *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	p.ID = m.nextID
	p.Likes = 0
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	m.posts[p.ID] = *p
	m.nextID++

	return nil
}

func (m *MemoryStore) IncrementLikes(ctx context.Context, id int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return 0, m.Err
	}

	p, ok := m.posts[id]
	if !ok {
		return 0, ErrRecordNotFound
	}

	p.Likes++
	m.posts[id] = p

	return p.Likes, nil
}
