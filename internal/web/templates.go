package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/erazemk/labinventory/internal/model"
	webembed "github.com/erazemk/labinventory/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	pages     map[string]*template.Template
	fragments map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"quantity": model.FormatQuantity,
	}
}

var (
	pageFiles     = []string{"login.html", "dashboard.html"}
	fragmentFiles = []string{"dashboard_panel.html"}
)

// LoadTemplates parses the page templates with the layout and the fragments
// on their own.
func LoadTemplates(tfs fs.FS) (*Templates, error) {
	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{
		pages:     make(map[string]*template.Template),
		fragments: make(map[string]*template.Template),
	}

	for _, page := range pageFiles {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl, err := template.New(page).Funcs(FuncMap()).Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		if tmpl, err = tmpl.Parse(string(pageBytes)); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		ts.pages[page] = tmpl
	}

	for _, frag := range fragmentFiles {
		tmpl, err := template.New(frag).Funcs(FuncMap()).ParseFS(tfs, frag)
		if err != nil {
			return nil, fmt.Errorf("parsing fragment %s: %w", frag, err)
		}
		ts.fragments[frag] = tmpl
	}

	return ts, nil
}

// LoadEmbeddedTemplates parses the templates compiled into the binary.
func LoadEmbeddedTemplates() (*Templates, error) {
	return LoadTemplates(webembed.TemplatesFS())
}

// Render renders a page inside the layout.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.pages[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// RenderFragment renders a partial page without the layout.
func (ts *Templates) RenderFragment(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.fragments[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("failed to render fragment", "template", name, "error", err)
	}
}

// PageData is the base data passed to all page templates.
type PageData struct {
	Title     string
	BodyClass string
}
