package postservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/sushihentaime/blogboard/internal/common"
)

type Post struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	// Content is stored in Markdown format.
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `json:"likes"`
}

// Store is the table-backed persistence behind the post service.
type Store interface {
	// List returns every post, newest first.
	List(ctx context.Context) ([]Post, error)
	Get(ctx context.Context, id int) (*Post, error)
	// Insert stores p and fills in the fields assigned by the store. A zero
	// CreatedAt leaves the timestamp to the store default.
	Insert(ctx context.Context, p *Post) error
	// IncrementLikes atomically adds one like and returns the new count.
	IncrementLikes(ctx context.Context, id int) (int, error)
}

type PostService struct {
	store  Store
	mb     common.MessageProducer
	logger *slog.Logger
	now    func() time.Time
}

type PostCreatedEvent struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
