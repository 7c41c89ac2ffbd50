package postservice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/sushihentaime/blogboard/internal/common"
)

var (
	ErrRecordNotFound = errors.New("post not found")
	ErrCreateFailed   = errors.New("could not create post")
	ErrEditConflict   = errors.New("unable to update the post due to a concurrent change")
)

// NewPostService wires the store and an optional event producer. mb may be
// nil, in which case no post.created events are published.
func NewPostService(store Store, mb common.MessageProducer, logger *slog.Logger) *PostService {
	return &PostService{
		store:  store,
		mb:     mb,
		logger: logger,
		now:    time.Now,
	}
}

type CreatePostRequest struct {
	Title   string
	Content string
	// CreatedAt defaults to the current UTC time.
	CreatedAt time.Time
}

// ListPosts returns all posts ordered by creation time, newest first.
func (s *PostService) ListPosts(ctx context.Context) ([]Post, error) {
	posts, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	if posts == nil {
		posts = []Post{}
	}

	return posts, nil
}

// GetPostByID returns a post by its ID.
func (s *PostService) GetPostByID(ctx context.Context, id int) (*Post, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.store.Get(ctx, id)
}

// CreatePost validates and stores a new post and announces it on the
// message broker.
func (s *PostService) CreatePost(ctx context.Context, req *CreatePostRequest) (*Post, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	post := &Post{
		Title:     req.Title,
		Content:   sanitizeMarkdown(req.Content),
		CreatedAt: createdAt.UTC(),
	}

	err := s.store.Insert(ctx, post)
	if err != nil {
		return nil, err
	}

	s.publishCreated(ctx, post)

	return post, nil
}

// LikePost adds one like to a post and returns the updated count.
func (s *PostService) LikePost(ctx context.Context, id int) (int, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return 0, v.ValidationError()
	}

	return s.store.IncrementLikes(ctx, id)
}

// publishCreated only logs failures; the post is already stored.
func (s *PostService) publishCreated(ctx context.Context, post *Post) {
	if s.mb == nil {
		return
	}

	msg, err := json.Marshal(PostCreatedEvent{ID: post.ID, Title: post.Title, CreatedAt: post.CreatedAt})
	if err != nil {
		s.logger.Error("could not encode post.created event", slog.String("error", err.Error()))
		return
	}

	err = s.mb.Publish(ctx, msg, common.PostCreatedKey, common.PostExchange)
	if err != nil {
		s.logger.Error("could not publish post.created event", slog.Int("post_id", post.ID), slog.String("error", err.Error()))
	}
}
