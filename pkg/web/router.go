package web

import (
	"net/http"
	"slices"
	"strings"
)

// Router is the page router of a web module. Paths no route knows are sent
// to the fallback, usually a rendered not-found page. Paths that exist under
// another method keep the mux's 405 answer with its Allow header.
type Router struct {
	mux      *http.ServeMux
	methods  []string
	fallback http.Handler
}

func NewRouter() *Router {
	return &Router{mux: http.NewServeMux()}
}

// SetFallback sets the handler for unknown paths.
func (r *Router) SetFallback(handler http.HandlerFunc) {
	r.fallback = handler
}

// Handle registers handler for a "METHOD /path" or "/path" pattern.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
	r.track(pattern)
}

func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.Handle(pattern, handler)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.fallback != nil && !r.known(req) {
		r.fallback.ServeHTTP(w, req)
		return
	}
	r.mux.ServeHTTP(w, req)
}

func (r *Router) track(pattern string) {
	method, _, ok := strings.Cut(pattern, " ")
	if !ok || strings.HasPrefix(method, "/") {
		return
	}
	if !slices.Contains(r.methods, method) {
		r.methods = append(r.methods, method)
	}
}

// known reports whether any route matches the request path under its own
// method or one of the registered ones.
func (r *Router) known(req *http.Request) bool {
	if _, pattern := r.mux.Handler(req); pattern != "" {
		return true
	}
	for _, method := range r.methods {
		if method == req.Method {
			continue
		}
		alt := req.Clone(req.Context())
		alt.Method = method
		if _, pattern := r.mux.Handler(alt); pattern != "" {
			return true
		}
	}
	return false
}
