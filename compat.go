package relic

import (
	"net/http"
	"strings"
)

// httpRouter bridges plain net/http handlers and middleware into a Router,
// for mounting existing stdlib-shaped code without rewriting it against
// Ctx. It is exposed on Router as the Compat field.
type httpRouter struct {
	r *Router
}

func adaptHandler(h http.Handler) Handler {
	return func(c *Ctx) error {
		h.ServeHTTP(c.Writer(), c.Request())
		return nil
	}
}

// Handle mounts h at pattern for every standard HTTP method.
func (hr *httpRouter) Handle(pattern string, h http.Handler) {
	handler := adaptHandler(h)
	for _, m := range allMethods {
		hr.r.Handle(m, pattern, handler)
	}
}

// HandleMethod mounts h at pattern for a single method.
func (hr *httpRouter) HandleMethod(method, pattern string, h http.Handler) {
	hr.r.Handle(method, pattern, adaptHandler(h))
}

// Mount delegates every request under prefix to h, with prefix stripped
// from the forwarded request's URL path (like http.StripPrefix).
func (hr *httpRouter) Mount(prefix string, h http.Handler) {
	full := hr.r.fullPath(prefix)
	stripped := http.StripPrefix(full, h)
	handler := func(c *Ctx) error {
		stripped.ServeHTTP(c.Writer(), c.Request())
		return nil
	}
	tail := strings.TrimSuffix(prefix, "/") + "/**"
	for _, m := range allMethods {
		hr.r.Handle(m, tail, handler)
	}
}

// Group creates a nested httpRouter scoped under prefix, mirroring Router's
// own Prefix for pure net/http-style mounting code.
func (hr *httpRouter) Group(prefix string, fn func(*httpRouter)) {
	sub := hr.r.Prefix(prefix)
	fn(&httpRouter{r: sub})
}

// Use installs a standard net/http middleware around the whole router's
// dispatch, outside the Ctx pipeline. Middlewares run in registration
// order, outermost first.
func (hr *httpRouter) Use(mw func(http.Handler) http.Handler) {
	hr.r.core.stdMW = append(hr.r.core.stdMW, mw)
}
