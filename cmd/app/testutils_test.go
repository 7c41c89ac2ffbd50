package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/blogboard/internal/common"
	"github.com/sushihentaime/blogboard/internal/postservice"
	"github.com/sushihentaime/blogboard/internal/userservice"
)

const (
	testUsername = "testuser"
	testPassword = "TestPassword123!"
)

type testServer struct {
	*httptest.Server
}

// newTestServer returns a server whose client keeps cookies and does not
// follow redirects.
func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	ts.Client().Jar = jar
	ts.Client().CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

type testApp struct {
	*application
	store       *postservice.MemoryStore
	credentials *userservice.MemoryCredentials
}

func newTestApplication(t *testing.T) *testApp {
	t.Helper()

	templates, err := newTemplateCache()
	require.NoError(t, err)

	cfg := &Config{
		Port:         ":0",
		Environment:  "development",
		Version:      "1.0.0",
		StoreDriver:  "memory",
		SessionTTL:   time.Hour,
		LimiterRPS:   2,
		LimiterBurst: 4,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := postservice.NewMemoryStore()
	credentials := userservice.NewMemoryCredentials()
	sessions := userservice.NewCacheSessions(common.NewCache(cfg.SessionTTL, time.Minute))

	app := &application{
		config:      cfg,
		logger:      logger,
		postService: postservice.NewPostService(store, nil, logger),
		userService: userservice.NewUserService(credentials, sessions, cfg.SessionTTL),
		templates:   templates,
	}

	return &testApp{application: app, store: store, credentials: credentials}
}

type testResponse struct {
	status  int
	header  http.Header
	body    string
	cookies []*http.Cookie
}

func (r testResponse) json(t *testing.T) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(r.body), &env))
	return env
}

func readResponse(t *testing.T, res *http.Response) testResponse {
	t.Helper()
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	return testResponse{status: res.StatusCode, header: res.Header, body: string(body), cookies: res.Cookies()}
}

func (ts *testServer) get(t *testing.T, path string) testResponse {
	t.Helper()

	res, err := ts.Client().Get(ts.URL + path)
	require.NoError(t, err)

	return readResponse(t, res)
}

func (ts *testServer) postForm(t *testing.T, path string, form url.Values) testResponse {
	t.Helper()

	res, err := ts.Client().PostForm(ts.URL+path, form)
	require.NoError(t, err)

	return readResponse(t, res)
}

func (ts *testServer) postJSON(t *testing.T, path string) testResponse {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.URL+path, strings.NewReader(""))
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")

	res, err := ts.Client().Do(req)
	require.NoError(t, err)

	return readResponse(t, res)
}

// login registers the test user directly and logs in through the form.
func (ts *testServer) login(t *testing.T, app *testApp) {
	t.Helper()

	_, err := app.userService.RegisterUser(context.Background(), testUsername, testPassword)
	require.NoError(t, err)

	res := ts.postForm(t, "/login", url.Values{"username": {testUsername}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, res.status)
}

func (ts *testServer) sessionCookie(t *testing.T) *http.Cookie {
	t.Helper()

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)

	for _, c := range ts.Client().Jar.Cookies(u) {
		if c.Name == sessionCookieName {
			return c
		}
	}

	return nil
}

func createTestPost(t *testing.T, app *testApp, title string, createdAt time.Time) *postservice.Post {
	t.Helper()

	post, err := app.postService.CreatePost(context.Background(), &postservice.CreatePostRequest{
		Title:     title,
		Content:   "Some **markdown** content.",
		CreatedAt: createdAt,
	})
	require.NoError(t, err)

	return post
}
