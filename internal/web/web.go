// Package web renders the server-side HTML pages.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/inkpost/inkpost/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

// pages maps a page name to the template file rendered inside the layout.
var pages = []string{
	"index",
	"blogs",
	"blog",
	"my_posts",
	"post_new",
	"post_edit",
	"login",
	"register",
}

// PageData is the envelope every page receives. Principal is nil for
// anonymous visitors; Flashes are consumed on render.
type PageData struct {
	Title     string
	Principal *model.Principal
	Flashes   []model.Flash
	Data      any
}

// Renderer holds the parsed page templates.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewRenderer parses every page template against the shared layout.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.ParseFS(templatesFS,
			"templates/layout.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		templates[page] = tmpl
	}

	return &Renderer{templates: templates, logger: logger}, nil
}

// Render writes the named page. The page is executed into a buffer first
// so a template failure produces a clean 500 instead of a torn response.
func (rd *Renderer) Render(w http.ResponseWriter, status int, page string, data PageData) {
	tmpl, ok := rd.templates[page]
	if !ok {
		rd.logger.Error("unknown page template", slog.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		rd.logger.Error("template render failed",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
