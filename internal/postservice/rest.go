package postservice

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
)

const (
	postsResource   = "Posts"
	postColumns     = "id,title,content,created_at,likes"
	maxLikeAttempts = 5
)

// restTime accepts PostgREST timestamps with or without a zone offset.
type restTime struct {
	time.Time
}

var restTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

func (t *restTime) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("created_at: %w", err)
	}

	for _, layout := range restTimeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}

	return fmt.Errorf("created_at: unrecognised timestamp %q", s)
}

type restPost struct {
	ID        int      `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	CreatedAt restTime `json:"created_at"`
	Likes     int      `json:"likes"`
}

func (p restPost) post() Post {
	return Post{ID: p.ID, Title: p.Title, Content: p.Content, CreatedAt: p.CreatedAt.Time, Likes: p.Likes}
}

type newRestPost struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}

// RESTStore is the Store backed by a PostgREST (Supabase) endpoint. The
// access key is sent both as the apikey header and as a bearer token.
type RESTStore struct {
	root   string
	client *postgrest.Client
}

// NewRESTStore accepts either a bare project URL, to which /rest/v1 is
// appended, or the full REST root. timeout bounds the wait for response
// headers.
func NewRESTStore(rawURL, key string, timeout time.Duration) (*RESTStore, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("store url must use http or https, got %q", u.Scheme)
	}

	if u.Path == "" || u.Path == "/" {
		u.Path = "/rest/v1"
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""

	client := postgrest.NewClient(u.String(), "public", nil)
	if client.ClientError != nil {
		return nil, fmt.Errorf("create store client: %w", client.ClientError)
	}
	client.SetApiKey(key).SetAuthToken(key)

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	client.Transport.Parent = transport

	return &RESTStore{root: u.String(), client: client}, nil
}

// The client has no context support; a cancelled ctx stops the call before
// it is sent.
func (s *RESTStore) posts(ctx context.Context) (*postgrest.QueryBuilder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.client.From(postsResource), nil
}

func (s *RESTStore) List(ctx context.Context) ([]Post, error) {
	q, err := s.posts(ctx)
	if err != nil {
		return nil, err
	}

	var rows []restPost
	_, err = q.Select(postColumns, "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Order("id", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.post())
	}

	return posts, nil
}

func (s *RESTStore) Get(ctx context.Context, id int) (*Post, error) {
	q, err := s.posts(ctx)
	if err != nil {
		return nil, err
	}

	var rows []restPost
	_, err = q.Select(postColumns, "", false).Eq("id", strconv.Itoa(id)).ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}

	switch len(rows) {
	case 0:
		return nil, ErrRecordNotFound
	case 1:
		post := rows[0].post()
		return &post, nil
	default:
		return nil, fmt.Errorf("get post %d: expected 1 row, got %d", id, len(rows))
	}
}

func (s *RESTStore) Insert(ctx context.Context, p *Post) error {
	q, err := s.posts(ctx)
	if err != nil {
		return err
	}

	row := newRestPost{Title: p.Title, Content: p.Content}
	if !p.CreatedAt.IsZero() {
		row.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339Nano)
	}

	var rows []restPost
	_, err = q.Insert(row, false, "", "representation", "").ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}

	if len(rows) == 0 {
		return ErrCreateFailed
	}

	*p = rows[0].post()
	return nil
}

// IncrementLikes has no atomic update expression over PostgREST, so it
// compare-and-swaps on the current like count.
func (s *RESTStore) IncrementLikes(ctx context.Context, id int) (int, error) {
	for attempt := 0; attempt < maxLikeAttempts; attempt++ {
		post, err := s.Get(ctx, id)
		if err != nil {
			return 0, err
		}

		q, err := s.posts(ctx)
		if err != nil {
			return 0, err
		}

		var rows []restPost
		_, err = q.Update(map[string]int{"likes": post.Likes + 1}, "representation", "").
			Eq("id", strconv.Itoa(id)).
			Eq("likes", strconv.Itoa(post.Likes)).
			ExecuteTo(&rows)
		if err != nil {
			return 0, fmt.Errorf("like post %d: %w", id, err)
		}

		if len(rows) == 1 {
			return rows[0].Likes, nil
		}
	}

	return 0, ErrEditConflict
}
