package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
)

//go:embed layouts/*.html pages/*.html components/*.html
var files embed.FS

// Pages are the views the route layer can render, keyed by name.
var Pages = []string{"index", "add", "select", "edit"}

// Set holds one parsed template per page, each sharing the base layout and
// components.
type Set struct {
	pages map[string]*template.Template
}

func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatRating": func(r *float64) string {
			if r == nil {
				return "-"
			}
			return strconv.FormatFloat(*r, 'f', -1, 64)
		},
		"truncate": func(s string, n int) string {
			runes := []rune(s)
			if len(runes) <= n {
				return s
			}
			return strings.TrimSpace(string(runes[:n])) + "..."
		},
	}
}

func Load() (*Set, error) {
	base, err := template.New("base").Funcs(FuncMap()).ParseFS(files, "layouts/base.html", "components/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	set := &Set{pages: make(map[string]*template.Template, len(Pages))}
	for _, name := range Pages {
		tmpl, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout for %s: %w", name, err)
		}
		if _, err := tmpl.ParseFS(files, "pages/"+name+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		set.pages[name] = tmpl
	}

	return set, nil
}

func (s *Set) Render(w io.Writer, page string, data any) error {
	tmpl, ok := s.pages[page]
	if !ok {
		return fmt.Errorf("unknown template %q", page)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}
