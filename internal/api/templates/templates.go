// Package templates holds the admin pages
package templates

import (
	"embed"
	"html/template"
	"slices"
)

//go:embed *.html
var files embed.FS

// Load parses the embedded pages
func Load() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"contains": slices.Contains[[]string, string],
	}).ParseFS(files, "*.html")
}
