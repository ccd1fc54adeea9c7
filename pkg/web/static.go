package web

import (
	"io/fs"
	"net/http"
)

// StaticServer returns a handler that serves files from subdir of fsys,
// stripping urlPrefix from the request path. Responses carry a short
// Cache-Control so edited assets show up after a reload.
func StaticServer(fsys fs.FS, subdir, urlPrefix string) http.HandlerFunc {
	sub, err := fs.Sub(fsys, subdir)
	if err != nil {
		panic("failed to create sub-filesystem: " + err.Error())
	}
	server := http.StripPrefix(urlPrefix, http.FileServer(http.FS(sub)))
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		server.ServeHTTP(w, r)
	}
}
