package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/blogboard/internal/common"
	"github.com/sushihentaime/blogboard/internal/postservice"
	"github.com/sushihentaime/blogboard/internal/userservice"
)

func (app *application) homeHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := app.postService.ListPosts(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	data := app.newTemplateData(r)
	data.Flash = app.popFlash(w, r)
	data.Posts = posts

	app.render(w, r, http.StatusOK, "index.html", data)
}

func (app *application) showPostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.postNotFoundErrorResponse(w, r)
		return
	}

	post, err := app.postService.GetPostByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, postservice.ErrRecordNotFound):
			app.postNotFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			app.postNotFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	data := app.newTemplateData(r)
	data.Post = post

	app.render(w, r, http.StatusOK, "post_detail.html", data)
}

func (app *application) newPostFormHandler(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusOK, "new_post.html", app.newTemplateData(r))
}

func (app *application) createPostHandler(w http.ResponseWriter, r *http.Request) {
	err := app.parseForm(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	f := newForm(r.PostForm)

	_, err = app.postService.CreatePost(r.Context(), &postservice.CreatePostRequest{
		Title:   f.Get("title"),
		Content: f.Get("content"),
	})
	if err != nil {
		var validationErr common.ValidationError
		switch {
		case errors.As(err, &validationErr):
			f.FieldErrors = validationErr.Errors
			data := app.newTemplateData(r)
			data.Form = f
			app.render(w, r, http.StatusOK, "new_post.html", data)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (app *application) likePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	likes, err := app.postService.LikePost(r.Context(), id)
	if err != nil {
		switch {
		case errors.As(err, &common.ValidationError{}):
			app.badRequestErrorResponse(w, r, errors.New("invalid ID parameter"))
		case errors.Is(err, postservice.ErrRecordNotFound):
			app.postNotFoundErrorResponse(w, r)
		case errors.Is(err, postservice.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"id": id, "likes": likes}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) registerFormHandler(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusOK, "register.html", app.newTemplateData(r))
}

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	err := app.parseForm(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	f := newForm(r.PostForm)

	_, err = app.userService.RegisterUser(r.Context(), f.Get("username"), f.Get("password"))
	if err != nil {
		var validationErr common.ValidationError
		switch {
		case errors.As(err, &validationErr):
			f.FieldErrors = validationErr.Errors
		case errors.Is(err, userservice.ErrDuplicateUsername):
			f.FieldErrors["username"] = err.Error()
		default:
			app.serverErrorResponse(w, r, err)
			return
		}

		data := app.newTemplateData(r)
		data.Form = f
		app.render(w, r, http.StatusOK, "register.html", data)
		return
	}

	app.setFlash(w, "Your account has been created. Please log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (app *application) loginFormHandler(w http.ResponseWriter, r *http.Request) {
	data := app.newTemplateData(r)
	data.Flash = app.popFlash(w, r)

	app.render(w, r, http.StatusOK, "login.html", data)
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	err := app.parseForm(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	f := newForm(r.PostForm)

	session, err := app.userService.LoginUser(r.Context(), f.Get("username"), f.Get("password"))
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrInvalidCredentials):
			f.NonFieldError = "invalid credentials"
			data := app.newTemplateData(r)
			data.Form = f
			app.render(w, r, http.StatusOK, "login.html", data)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.setSessionCookie(w, session.Plain)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (app *application) logoutUserHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil {
		err = app.userService.LogoutUser(r.Context(), cookie.Value)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
	}

	app.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (app *application) aboutHandler(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusOK, "about.html", app.newTemplateData(r))
}

func (app *application) contactHandler(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusOK, "contact.html", app.newTemplateData(r))
}

func (app *application) legacyNewPostHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/new_post", http.StatusMovedPermanently)
}
