// Package web holds the HTML templates rendered by the server.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates parses every page template. Pages share the "header" and
// "footer" blocks defined in layout.html.
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templatesFS, "templates/*.html")
}
