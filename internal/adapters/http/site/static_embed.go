package site

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/**
var staticFS embed.FS

// FS returns an http.FileSystem rooted at the embedded static directory.
func FS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// Should never happen with an embedded tree. Expose the
		// unstripped FS rather than failing registration.
		return http.FS(staticFS)
	}
	return http.FS(sub)
}
