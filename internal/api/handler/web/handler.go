// internal/api/handler/web/handler.go
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/newthinker/binsig/internal/app"
	"github.com/newthinker/binsig/internal/core"
	"go.uber.org/zap"
)

//go:embed templates/*
var templateFS embed.FS

// pages lists the page templates; each is parsed together with layout.html.
var pages = []string{"generator.html", "results.html"}

// App defines what the web UI needs from app.App.
type App interface {
	Submit(ctx context.Context, req core.Request) (*core.Batch, error)
	Export(ctx context.Context, id string) (filename, text string, err error)
	Insight(ctx context.Context, symbol string, useNews bool) (*app.Insight, error)
}

// Handler provides web UI handlers with template rendering
type Handler struct {
	// pageTemplates holds one template set per page: layout.html plus the page
	pageTemplates map[string]*template.Template
	app           App
	logger        *zap.Logger
}

var funcs = template.FuncMap{
	"upper":   strings.ToUpper,
	"percent": core.FormatPercent,
}

// NewHandler creates a new web handler with templates loaded from the given
// directory. If templatesDir is empty, it falls back to embedded templates.
func NewHandler(a App, templatesDir string, logger *zap.Logger) (*Handler, error) {
	var fsys fs.FS
	if templatesDir != "" {
		fsys = os.DirFS(templatesDir)
	} else {
		sub, err := fs.Sub(templateFS, "templates")
		if err != nil {
			return nil, fmt.Errorf("accessing embedded templates: %w", err)
		}
		fsys = sub
	}
	return NewHandlerWithFS(a, fsys, logger)
}

// NewHandlerWithFS creates a new web handler using a custom filesystem.
func NewHandlerWithFS(a App, fsys fs.FS, logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pageTemplates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(fsys, "layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		pageTemplates[page] = tmpl
	}

	return &Handler{pageTemplates: pageTemplates, app: a, logger: logger}, nil
}

// render executes the specified page template with the given data
func (h *Handler) render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := h.pageTemplates[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		h.logger.Error("rendering page", zap.String("page", page), zap.Error(err))
	}
}
