package module

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
)

// ErrPrefixTaken is returned when two modules claim the same prefix.
var ErrPrefixTaken = errors.New("module prefix already mounted")

// Router dispatches on the first path segment. Requests whose segment names a
// mounted module go to that module; everything else goes to the native mux.
type Router struct {
	mu      sync.RWMutex
	modules map[string]*Module
	native  *http.ServeMux
}

// NewRouter creates a Router with no modules.
func NewRouter() *Router {
	return &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
	}
}

// HandleNative registers a handler outside every module, such as health checks.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Redirect answers pattern with 303 See Other to target.
func (r *Router) Redirect(pattern, target string) {
	r.native.Handle(pattern, http.RedirectHandler(target, http.StatusSeeOther))
}

// Mount adds m under its prefix.
func (r *Router) Mount(m *Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.modules[m.prefix]; ok {
		return fmt.Errorf("%w: %s", ErrPrefixTaken, m.prefix)
	}
	r.modules[m.prefix] = m
	return nil
}

// Prefixes lists the mounted prefixes in order.
func (r *Router) Prefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefixes := make([]string, 0, len(r.modules))
	for p := range r.modules {
		prefixes = append(prefixes, p)
	}
	slices.Sort(prefixes)
	return prefixes
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	trimTrailingSlash(req)

	r.mu.RLock()
	m, ok := r.modules[firstSegment(req.URL.Path)]
	r.mu.RUnlock()

	if ok {
		m.Serve(w, req)
		return
	}
	r.native.ServeHTTP(w, req)
}

// firstSegment returns "/seg" for "/seg/rest" and "/" for the root.
func firstSegment(path string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return "/" + seg
}

// trimTrailingSlash drops one trailing slash so "/app/review/" and
// "/app/review" reach the same route. The root is left alone.
func trimTrailingSlash(req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req.URL.Path = p[:len(p)-1]
	}
}
