package main

import (
	"context"
	"net/http"

	"github.com/sushihentaime/blogboard/internal/userservice"
)

type contextKey string

const (
	userContextKey     = contextKey("user")
	apiRouteContextKey = contextKey("api")
)

func (app *application) createUserContext(r *http.Request, user *userservice.User) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}

// getUserContext never returns nil; requests that did not pass through
// authenticate are anonymous.
func (app *application) getUserContext(r *http.Request) *userservice.User {
	user, ok := r.Context().Value(userContextKey).(*userservice.User)
	if !ok {
		return &userservice.AnonymousUser
	}
	return user
}

func isAPIRoute(r *http.Request) bool {
	api, _ := r.Context().Value(apiRouteContextKey).(bool)
	return api
}
