package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

func (app *application) logError(r *http.Request, err error) {
	var (
		method  = r.Method
		url     = r.URL.RequestURI()
		message = err.Error()
	)

	app.logger.Error(message, slog.String("method", method), slog.String("url", url))
}

func wantsJSON(r *http.Request) bool {
	return isAPIRoute(r) || strings.Contains(r.Header.Get("Accept"), "application/json")
}

// writeErrorResponse answers API requests with a JSON envelope and page
// requests with the error page.
func (app *application) writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	if wantsJSON(r) {
		err := app.writeJSON(w, status, envelope{"error": message}, nil)
		if err != nil {
			app.logError(r, err)
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	data := app.newTemplateData(r)
	data.Status = fmt.Sprintf("%d %s", status, http.StatusText(status))
	data.Message = fmt.Sprint(message)

	err := app.renderPage(w, status, "error.html", data)
	if err != nil {
		app.logError(r, err)
		http.Error(w, data.Message, status)
	}
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	message := "the server encountered a problem and could not process your request"
	app.writeErrorResponse(w, r, http.StatusInternalServerError, message)
}

func (app *application) badRequestErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.writeErrorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func (app *application) postNotFoundErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusNotFound, "post not found")
}

func (app *application) unAuthorizedErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusUnauthorized, "you must be logged in to access this resource")
}

func (app *application) editConflictResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusConflict, "unable to update the record due to an edit conflict, please try again")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded")
}

func (app *application) methodNotAllowedErrorResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	app.writeErrorResponse(w, r, http.StatusMethodNotAllowed, message)
}
