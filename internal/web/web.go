// Package web embeds the HTML templates and static assets of the browser UI.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const timeLayout = "02/01/2006 15:04"

// Templates parses every page template together with the shared layout.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"fmtTime": fmtTime,
	}).ParseFS(templateFS, "templates/*.html"))
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}

// Static serves the files under static/ (stylesheet, manifest, icons).
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// ServiceWorker returns the PWA service worker script served at /sw.js.
func ServiceWorker() []byte {
	b, err := staticFS.ReadFile("static/service-worker.js")
	if err != nil {
		panic(err)
	}
	return b
}
