package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/sushihentaime/blogboard/internal/postservice"
	"github.com/sushihentaime/blogboard/ui"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type templateData struct {
	CurrentYear     int
	IsAuthenticated bool
	Username        string
	Flash           string
	Posts           []postservice.Post
	Post            *postservice.Post
	Form            *form
	Status          string
	Message         string
}

// form carries submitted values back into a re-rendered page.
type form struct {
	Values        url.Values
	FieldErrors   map[string]string
	NonFieldError string
}

func newForm(values url.Values) *form {
	return &form{Values: values, FieldErrors: map[string]string{}}
}

func (f *form) Get(key string) string {
	if f == nil || f.Values == nil {
		return ""
	}
	return f.Values.Get(key)
}

func (app *application) newTemplateData(r *http.Request) *templateData {
	user := app.getUserContext(r)

	return &templateData{
		CurrentYear:     time.Now().Year(),
		IsAuthenticated: !user.IsAnonymous(),
		Username:        user.Username,
		Form:            newForm(nil),
	}
}

// Raw HTML in post content is omitted, not passed through.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func humanDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("02 Jan 2006 at 15:04")
}

func isoDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

var functions = template.FuncMap{
	"markdown":  renderMarkdown,
	"humanDate": humanDate,
	"isoDate":   isoDate,
}

// newTemplateCache parses every page together with the base layout.
func newTemplateCache() (map[string]*template.Template, error) {
	cache := map[string]*template.Template{}

	pages, err := fs.Glob(ui.Files, "html/pages/*.html")
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		name := filepath.Base(page)

		ts, err := template.New(name).Funcs(functions).ParseFS(ui.Files, "html/base.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}

		cache[name] = ts
	}

	return cache, nil
}

// renderPage executes into a buffer first so a template error never leaves
// a half written response.
func (app *application) renderPage(w http.ResponseWriter, status int, page string, data *templateData) error {
	ts, ok := app.templates[page]
	if !ok {
		return fmt.Errorf("the template %s does not exist", page)
	}

	buf := new(bytes.Buffer)

	err := ts.ExecuteTemplate(buf, "base", data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)

	return nil
}

func (app *application) render(w http.ResponseWriter, r *http.Request, status int, page string, data *templateData) {
	err := app.renderPage(w, status, page, data)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
