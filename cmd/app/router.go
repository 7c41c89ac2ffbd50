package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sushihentaime/blogboard/ui"
)

const staticPrefix = "/static/"

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.Handler(http.MethodGet, staticPrefix+"*filepath", http.FileServer(http.FS(ui.Files)))
	router.HandlerFunc(http.MethodGet, "/healthcheck", app.healthCheckHandler)

	// pages
	router.HandlerFunc(http.MethodGet, "/", app.homeHandler)
	router.HandlerFunc(http.MethodGet, "/post/:id", app.showPostHandler)
	router.HandlerFunc(http.MethodGet, "/about", app.aboutHandler)
	router.HandlerFunc(http.MethodGet, "/contact", app.contactHandler)

	// user service
	router.HandlerFunc(http.MethodGet, "/register", app.registerFormHandler)
	router.HandlerFunc(http.MethodPost, "/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodGet, "/login", app.loginFormHandler)
	router.HandlerFunc(http.MethodPost, "/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodGet, "/logout", app.logoutUserHandler)

	// post service
	router.HandlerFunc(http.MethodGet, "/new_post", app.requireAuthPage(app.newPostFormHandler))
	router.HandlerFunc(http.MethodPost, "/new_post", app.requireAuthUser(app.createPostHandler))
	router.HandlerFunc(http.MethodPost, "/like_post/:id", app.apiRoute(app.requireAuthUser(app.likePostHandler)))

	// paths kept from the first version of the site
	router.HandlerFunc(http.MethodGet, "/new", app.legacyNewPostHandler)
	router.HandlerFunc(http.MethodPost, "/create", app.requireAuthUser(app.createPostHandler))

	return app.recoverPanic(app.logRequest(app.rateLimit(app.authenticate(router))))
}
