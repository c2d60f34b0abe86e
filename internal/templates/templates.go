// Package templates holds the server-rendered pages and static assets,
// embedded into the binary.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"time"

	"f1fantasy/internal/models"
)

//go:embed pages
var pages embed.FS

//go:embed static
var static embed.FS

// patterns lists the page globs in load order. base.tmpl defines the shared
// header and footer blocks used by every page.
var patterns = []string{
	"pages/*.tmpl",
	"pages/admin/*.tmpl",
}

// Static returns the embedded static assets rooted at the static directory
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Load parses every embedded page. Pages are addressed by file name, for
// example "login.tmpl" or "admin_users.tmpl".
func Load() (*template.Template, error) {
	tmpl := template.New("").Funcs(FuncMap())
	for _, pattern := range patterns {
		var err error
		tmpl, err = tmpl.ParseFS(pages, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to parse templates %s: %w", pattern, err)
		}
	}
	return tmpl, nil
}

// FuncMap returns the helpers available to every template
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"formatTime": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return "never"
			}
			return t.Format("Jan 2, 2006 15:04")
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"until": func(count int) []int {
			result := make([]int, count)
			for i := range result {
				result[i] = i
			}
			return result
		},
		"hasField": func(fields []models.Field, f models.Field) bool {
			for _, field := range fields {
				if field == f {
					return true
				}
			}
			return false
		},
		"fields":       func() []models.Field { return models.Fields },
		"draftTypes":   func() []models.DraftType { return models.DraftTypes },
		"pointSystems": func() []models.PointSystem { return models.PointSystems },
	}
}
