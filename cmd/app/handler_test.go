package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/blogboard/internal/postservice"
)

func TestHomeHandler(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	res := ts.get(t, "/")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "nothing to see here")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	createTestPost(t, app, "Older post", base)
	createTestPost(t, app, "Newest post", base.Add(2*time.Hour))
	createTestPost(t, app, "Middle post", base.Add(time.Hour))

	res = ts.get(t, "/")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "text/html; charset=utf-8", res.header.Get("Content-Type"))

	newest := strings.Index(res.body, "Newest post")
	middle := strings.Index(res.body, "Middle post")
	older := strings.Index(res.body, "Older post")
	require.True(t, newest >= 0 && middle >= 0 && older >= 0)
	assert.True(t, newest < middle && middle < older, "posts must be listed newest first")
}

func TestHomeHandler_StoreFailure(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	app.store.Err = errors.New("connection reset")

	res := ts.get(t, "/")
	assert.Equal(t, http.StatusInternalServerError, res.status)
	assert.NotContains(t, res.body, "connection reset")
}

func TestShowPostHandler(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	post, err := app.postService.CreatePost(context.Background(), &postservice.CreatePostRequest{
		Title:   "Hello",
		Content: "Some **bold** text <b>raw</b>",
	})
	require.NoError(t, err)

	testCases := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "existing post",
			path:       fmt.Sprintf("/post/%d", post.ID),
			wantStatus: http.StatusOK,
			wantBody:   "<strong>bold</strong>",
		},
		{
			name:       "missing post",
			path:       "/post/999",
			wantStatus: http.StatusNotFound,
			wantBody:   "post not found",
		},
		{
			name:       "zero id",
			path:       "/post/0",
			wantStatus: http.StatusNotFound,
			wantBody:   "post not found",
		},
		{
			name:       "non numeric id",
			path:       "/post/abc",
			wantStatus: http.StatusNotFound,
			wantBody:   "post not found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := ts.get(t, tc.path)
			assert.Equal(t, tc.wantStatus, res.status)
			assert.Contains(t, res.body, tc.wantBody)
		})
	}

	res := ts.get(t, fmt.Sprintf("/post/%d", post.ID))
	assert.NotContains(t, res.body, "<b>raw</b>")
}

func TestRegisterUserHandler(t *testing.T) {
	testCases := []struct {
		name         string
		form         url.Values
		existing     bool
		wantStatus   int
		wantLocation string
		wantBody     string
		wantUsers    int
	}{
		{
			name:         "valid registration",
			form:         url.Values{"username": {testUsername}, "password": {testPassword}},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login",
			wantUsers:    1,
		},
		{
			name:       "invalid username",
			form:       url.Values{"username": {"ab"}, "password": {testPassword}},
			wantStatus: http.StatusOK,
			wantBody:   "must be between 3 and 25 characters long",
			wantUsers:  0,
		},
		{
			name:       "empty password",
			form:       url.Values{"username": {testUsername}, "password": {""}},
			wantStatus: http.StatusOK,
			wantBody:   "must be provided",
			wantUsers:  0,
		},
		{
			name:       "duplicate username",
			form:       url.Values{"username": {testUsername}, "password": {"other"}},
			existing:   true,
			wantStatus: http.StatusOK,
			wantBody:   "username already exists",
			wantUsers:  1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApplication(t)
			ts := newTestServer(t, app.routes())

			if tc.existing {
				_, err := app.userService.RegisterUser(context.Background(), testUsername, testPassword)
				require.NoError(t, err)
			}

			res := ts.postForm(t, "/register", tc.form)
			assert.Equal(t, tc.wantStatus, res.status)
			assert.Equal(t, tc.wantLocation, res.header.Get("Location"))
			assert.Contains(t, res.body, tc.wantBody)
			assert.Equal(t, tc.wantUsers, app.credentials.Len())
		})
	}
}

func TestRegisterThenLogin(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	res := ts.get(t, "/register")
	assert.Equal(t, http.StatusOK, res.status)

	res = ts.postForm(t, "/register", url.Values{"username": {testUsername}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, res.status)

	res = ts.get(t, "/login")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "Your account has been created")

	res = ts.postForm(t, "/login", url.Values{"username": {testUsername}, "password": {testPassword}})
	assert.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/", res.header.Get("Location"))

	cookie := ts.sessionCookie(t)
	require.NotNil(t, cookie)
	assert.NotEqual(t, testUsername, cookie.Value)

	res = ts.get(t, "/")
	assert.Contains(t, res.body, "Logout")
	assert.Contains(t, res.body, testUsername)
}

func TestLoginUserHandler(t *testing.T) {
	testCases := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantCookie bool
		wantBody   string
	}{
		{
			name:       "valid credentials",
			form:       url.Values{"username": {testUsername}, "password": {testPassword}},
			wantStatus: http.StatusSeeOther,
			wantCookie: true,
		},
		{
			name:       "wrong password",
			form:       url.Values{"username": {testUsername}, "password": {"wrong"}},
			wantStatus: http.StatusOK,
			wantBody:   "invalid credentials",
		},
		{
			name:       "unknown user",
			form:       url.Values{"username": {"nobody"}, "password": {testPassword}},
			wantStatus: http.StatusOK,
			wantBody:   "invalid credentials",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApplication(t)
			ts := newTestServer(t, app.routes())

			_, err := app.userService.RegisterUser(context.Background(), testUsername, testPassword)
			require.NoError(t, err)

			res := ts.postForm(t, "/login", tc.form)
			assert.Equal(t, tc.wantStatus, res.status)
			assert.Contains(t, res.body, tc.wantBody)

			cookie := ts.sessionCookie(t)
			if tc.wantCookie {
				require.NotNil(t, cookie)
				assert.Len(t, cookie.Value, 26)
			} else {
				assert.Nil(t, cookie)
			}
		})
	}
}

func TestSessionCookieAttributes(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	_, err := app.userService.RegisterUser(context.Background(), testUsername, testPassword)
	require.NoError(t, err)

	res := ts.postForm(t, "/login", url.Values{"username": {testUsername}, "password": {testPassword}})
	require.Len(t, res.cookies, 1)

	cookie := res.cookies[0]
	assert.Equal(t, sessionCookieName, cookie.Name)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, int(time.Hour.Seconds()), cookie.MaxAge)
}

func TestLogoutUserHandler(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())
	ts.login(t, app)

	cookie := ts.sessionCookie(t)
	require.NotNil(t, cookie)

	res := ts.get(t, "/logout")
	assert.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/login", res.header.Get("Location"))
	assert.Nil(t, ts.sessionCookie(t))

	_, err := app.userService.GetUserBySession(context.Background(), cookie.Value)
	assert.Error(t, err)

	// logging out again is harmless
	res = ts.get(t, "/logout")
	assert.Equal(t, http.StatusSeeOther, res.status)
}

func TestNewPostHandlers_Anonymous(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	res := ts.get(t, "/new_post")
	assert.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/login", res.header.Get("Location"))

	for _, path := range []string{"/new_post", "/create"} {
		res = ts.postForm(t, path, url.Values{"title": {"T"}, "content": {"C"}})
		assert.Equal(t, http.StatusUnauthorized, res.status, path)
	}

	posts, err := app.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestCreatePostHandler(t *testing.T) {
	testCases := []struct {
		name         string
		path         string
		form         url.Values
		storeErr     error
		wantStatus   int
		wantLocation string
		wantBody     string
		wantPosts    int
	}{
		{
			name:         "valid post",
			path:         "/new_post",
			form:         url.Values{"title": {"T"}, "content": {"C"}},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/",
			wantPosts:    1,
		},
		{
			name:         "legacy form target",
			path:         "/create",
			form:         url.Values{"title": {"T"}, "content": {"C"}},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/",
			wantPosts:    1,
		},
		{
			name:       "empty title",
			path:       "/new_post",
			form:       url.Values{"title": {""}, "content": {"C"}},
			wantStatus: http.StatusOK,
			wantBody:   "must be provided",
			wantPosts:  0,
		},
		{
			name:       "title too long",
			path:       "/new_post",
			form:       url.Values{"title": {strings.Repeat("a", 201)}, "content": {"C"}},
			wantStatus: http.StatusOK,
			wantBody:   "must not be more than 200 characters long",
			wantPosts:  0,
		},
		{
			name:       "store failure",
			path:       "/new_post",
			form:       url.Values{"title": {"T"}, "content": {"C"}},
			storeErr:   postservice.ErrCreateFailed,
			wantStatus: http.StatusInternalServerError,
			wantPosts:  0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApplication(t)
			ts := newTestServer(t, app.routes())
			ts.login(t, app)

			res := ts.get(t, "/new_post")
			require.Equal(t, http.StatusOK, res.status)

			app.store.Err = tc.storeErr

			res = ts.postForm(t, tc.path, tc.form)
			assert.Equal(t, tc.wantStatus, res.status)
			assert.Equal(t, tc.wantLocation, res.header.Get("Location"))
			assert.Contains(t, res.body, tc.wantBody)

			app.store.Err = nil
			posts, err := app.store.List(context.Background())
			require.NoError(t, err)
			assert.Len(t, posts, tc.wantPosts)
		})
	}
}

func TestCreatePostHandler_RoundTrip(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())
	ts.login(t, app)

	res := ts.postForm(t, "/new_post", url.Values{"title": {"Round trip"}, "content": {"Body text"}})
	require.Equal(t, http.StatusSeeOther, res.status)

	posts, err := app.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, 0, posts[0].Likes)
	assert.WithinDuration(t, time.Now(), posts[0].CreatedAt, time.Minute)

	res = ts.get(t, fmt.Sprintf("/post/%d", posts[0].ID))
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "Round trip")
	assert.Contains(t, res.body, "Body text")
}

func TestLikePostHandler(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	post := createTestPost(t, app, "Likeable", time.Time{})

	res := ts.postJSON(t, fmt.Sprintf("/like_post/%d", post.ID))
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Equal(t, envelope{"error": "you must be logged in to access this resource"}, res.json(t))

	ts.login(t, app)

	testCases := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   envelope
	}{
		{
			name:       "first like",
			path:       fmt.Sprintf("/like_post/%d", post.ID),
			wantStatus: http.StatusOK,
			wantBody:   envelope{"id": float64(post.ID), "likes": float64(1)},
		},
		{
			name:       "second like",
			path:       fmt.Sprintf("/like_post/%d", post.ID),
			wantStatus: http.StatusOK,
			wantBody:   envelope{"id": float64(post.ID), "likes": float64(2)},
		},
		{
			name:       "missing post",
			path:       "/like_post/999",
			wantStatus: http.StatusNotFound,
			wantBody:   envelope{"error": "post not found"},
		},
		{
			name:       "bad id",
			path:       "/like_post/abc",
			wantStatus: http.StatusBadRequest,
			wantBody:   envelope{"error": "invalid ID parameter"},
		},
		{
			name:       "zero id",
			path:       "/like_post/0",
			wantStatus: http.StatusBadRequest,
			wantBody:   envelope{"error": "invalid ID parameter"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := ts.postJSON(t, tc.path)
			assert.Equal(t, tc.wantStatus, res.status)
			assert.Equal(t, tc.wantBody, res.json(t))
		})
	}
}

func TestLikePostHandler_Concurrent(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())
	ts.login(t, app)

	post := createTestPost(t, app, "Popular", time.Time{})

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/like_post/%d", ts.URL, post.ID), nil)
			if !assert.NoError(t, err) {
				return
			}
			res, err := ts.Client().Do(req)
			if !assert.NoError(t, err) {
				return
			}
			res.Body.Close()
			assert.Equal(t, http.StatusOK, res.StatusCode)
		}()
	}
	wg.Wait()

	got, err := app.store.Get(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.Likes)
}

func TestStaticPages(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	testCases := []struct {
		name         string
		path         string
		wantStatus   int
		wantLocation string
		wantBody     string
	}{
		{name: "about", path: "/about", wantStatus: http.StatusOK, wantBody: "About"},
		{name: "contact", path: "/contact", wantStatus: http.StatusOK, wantBody: "Contact"},
		{name: "legacy new post path", path: "/new", wantStatus: http.StatusMovedPermanently, wantLocation: "/new_post"},
		{name: "stylesheet", path: "/static/style.css", wantStatus: http.StatusOK, wantBody: "font-family"},
		{name: "unknown path", path: "/nope", wantStatus: http.StatusNotFound, wantBody: "could not be found"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := ts.get(t, tc.path)
			assert.Equal(t, tc.wantStatus, res.status)
			assert.Equal(t, tc.wantLocation, res.header.Get("Location"))
			assert.Contains(t, res.body, tc.wantBody)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	res := ts.postForm(t, "/about", url.Values{})
	assert.Equal(t, http.StatusMethodNotAllowed, res.status)
	assert.Contains(t, res.body, "the POST method is not supported for this resource")
}

func TestHealthCheckHandler(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	res := ts.get(t, "/healthcheck")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, envelope{
		"status": "available",
		"system_info": map[string]any{
			"environment": "development",
			"version":     "1.0.0",
			"store":       "memory",
		},
	}, res.json(t))
}
