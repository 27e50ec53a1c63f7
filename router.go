package relic

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"sync"

	"github.com/relic-http/relic/internal/trie"
)

// routeEntry is the value stored in each method's trie: the scope's
// middleware chain, captured at registration time, plus the handler.
type routeEntry struct {
	mw      []Middleware
	handler Handler
}

var allMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// routerCore is the shared state behind every Router scope produced by
// Prefix/With/Group — scopes share one set of route tries so a single
// ServeHTTP dispatch sees every route registered through any scope.
type routerCore struct {
	mu    sync.RWMutex
	trees map[string]*trie.Trie[*routeEntry]

	log          *slog.Logger
	errorHandler func(c *Ctx, err error)

	stdMW []func(http.Handler) http.Handler

	// hostBasedRouting, when set, makes lookup match against
	// "{host}{path}" instead of just "path" — routes registered while
	// this is enabled should include the host in their pattern.
	hostBasedRouting bool

	// sanitizeErrors keeps the default error handler's 500 body generic,
	// never including the underlying error's message. True by default.
	sanitizeErrors bool
	// strictHeaders makes the router reject a request with a malformed
	// Content-Type header at dispatch time (400) instead of leaving the
	// bad value for the handler to discover via RequestHeader().
	strictHeaders bool

	// notFound and methodNotAllowed back the configurable fallback
	// handlers for unmatched routes; both default to writing a plain
	// status-text body, set by newRouterCore.
	notFound         func(c *Ctx)
	methodNotAllowed func(c *Ctx, allow []string)
}

func defaultNotFound(c *Ctx) {
	c.Status(http.StatusNotFound)
	_, _ = c.WriteString(http.StatusText(http.StatusNotFound))
}

func defaultMethodNotAllowed(c *Ctx, allow []string) {
	c.Header().Raw().Set("Allow", strings.Join(allow, ", "))
	c.Status(http.StatusMethodNotAllowed)
	_, _ = c.WriteString(http.StatusText(http.StatusMethodNotAllowed))
}

func newRouterCore() *routerCore {
	return &routerCore{
		trees:            make(map[string]*trie.Trie[*routeEntry]),
		log:              slog.Default(),
		sanitizeErrors:   true,
		notFound:         defaultNotFound,
		methodNotAllowed: defaultMethodNotAllowed,
	}
}

func (rc *routerCore) tree(method string) *trie.Trie[*routeEntry] {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	t, ok := rc.trees[method]
	if !ok {
		t = trie.New[*routeEntry]()
		rc.trees[method] = t
	}
	return t
}

func (rc *routerCore) addRoute(method, pattern string, entry *routeEntry) {
	if err := rc.tree(method).Add(pattern, entry); err != nil {
		panic("relic: " + err.Error() + ": " + method + " " + pattern)
	}
}

// lookup finds the route entry for method+path, binding path parameters
// onto req. methodMismatch reports a path that matched under a different
// method (for 405 Method Not Allowed with Allow).
func (rc *routerCore) lookup(method, path string, req *http.Request) (entry *routeEntry, tailParam string, methodMismatch bool, allow []string) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	bind := func(res trie.Result[*routeEntry]) (*routeEntry, string) {
		for k, v := range res.Params {
			req.SetPathValue(k, v)
		}
		tail := strings.TrimPrefix(res.RemainingSuffix, "/")
		if tail != "" {
			req.SetPathValue("*", tail)
		}
		return res.Value, tail
	}

	if t, ok := rc.trees[method]; ok {
		if res, ok := t.Lookup(path); ok {
			e, tail := bind(res)
			return e, tail, false, nil
		}
	}

	if method == http.MethodHead {
		if t, ok := rc.trees[http.MethodGet]; ok {
			if res, ok := t.Lookup(path); ok {
				e, tail := bind(res)
				return e, tail, false, nil
			}
		}
	}

	for _, m := range allMethods {
		if m == method {
			continue
		}
		if t, ok := rc.trees[m]; ok {
			if _, ok := t.Lookup(path); ok {
				allow = append(allow, m)
			}
		}
	}
	if len(allow) > 0 {
		return nil, "", true, allow
	}
	return nil, "", false, nil
}

func (rc *routerCore) stdChain(final http.Handler) http.Handler {
	h := final
	for i := len(rc.stdMW) - 1; i >= 0; i-- {
		h = rc.stdMW[i](h)
	}
	return h
}

// statusForError maps a *relic.Error's Kind to the HTTP status it
// represents. A plain error (not one of ours), or KindUnexpected, becomes
// 500 — the only case this repo treats as an unclassified failure.
func statusForError(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindInvalidHeader, KindInvalidArgument:
		return http.StatusBadRequest
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindPathNotFound:
		return http.StatusNotFound
	case KindRangeNotSatisfiable:
		return http.StatusRequestedRangeNotSatisfiable
	default:
		return http.StatusInternalServerError
	}
}

func defaultErrorHandler(sanitize bool) func(c *Ctx, err error) {
	return func(c *Ctx, err error) {
		var pe *PanicError
		if errors.As(err, &pe) {
			c.Logger().Error("panic recovered", slog.Any("value", pe.Value), slog.String("stack", string(pe.Stack)))
			c.Status(http.StatusInternalServerError)
			_, _ = c.WriteString(http.StatusText(http.StatusInternalServerError))
			return
		}
		c.Logger().Error("handler error", slog.Any("error", err))
		status := statusForError(err)
		c.Status(status)
		msg := http.StatusText(status)
		if !sanitize {
			msg += ": " + err.Error()
		}
		_, _ = c.WriteString(msg)
	}
}

func captureStack() []byte {
	buf := make([]byte, 4096)
	for {
		n := runtime.Stack(buf, false)
		if n < len(buf) {
			return buf[:n]
		}
		buf = make([]byte, 2*len(buf))
	}
}

// Router is one routing scope: a base path and an inherited middleware
// chain over a shared routerCore. NewRouter creates the root scope; Prefix,
// Group, and With create child scopes that register into the same trees.
type Router struct {
	core *routerCore
	base string
	mw   []Middleware

	Compat *httpRouter
}

// NewRouter creates a root routing scope with no middleware and base "/".
func NewRouter() *Router {
	r := &Router{core: newRouterCore()}
	r.Compat = &httpRouter{r: r}
	return r
}

// Logger returns the router's logger.
func (r *Router) Logger() *slog.Logger { return r.core.log }

// SetLogger replaces the router's logger. A nil logger is ignored.
func (r *Router) SetLogger(l *slog.Logger) {
	if l != nil {
		r.core.log = l
	}
}

// ErrorHandler installs the handler invoked when a route Handler or
// recovered panic returns a non-nil error. The default writes a plain
// status-text body with the status statusForError maps the error to (500
// for a recovered panic).
func (r *Router) ErrorHandler(fn func(c *Ctx, err error)) { r.core.errorHandler = fn }

// SetHostBasedRouting toggles host-based routing: when enabled, lookups
// match against "{host}{path}" instead of just "path", so route patterns
// registered afterward should include the host, e.g.
// r.Get("example.com/users/:id", h). Disabled by default.
func (r *Router) SetHostBasedRouting(enabled bool) { r.core.hostBasedRouting = enabled }

// SetSanitizeErrorMessages toggles whether the default error handler's
// 500 body stays generic (true, the default) or includes the underlying
// non-panic error's message (false). Has no effect once a custom
// ErrorHandler is installed.
func (r *Router) SetSanitizeErrorMessages(enabled bool) { r.core.sanitizeErrors = enabled }

// SetStrictHeaders toggles eager Content-Type validation at dispatch
// time: when enabled, a request whose Content-Type header fails to parse
// is rejected with 400 before the matched route's middleware or handler
// runs, instead of leaving the bad value for the handler to discover via
// RequestHeader().ContentType().
func (r *Router) SetStrictHeaders(enabled bool) { r.core.strictHeaders = enabled }

// SetNotFoundHandler installs the handler invoked when no route matches a
// request's path at all. Defaults to a plain 404 with a status-text body.
func (r *Router) SetNotFoundHandler(h func(c *Ctx)) { r.core.notFound = h }

// SetMethodNotAllowedHandler installs the handler invoked when a request's
// path matches a registered route but no handler is registered for its
// method; allow lists the methods that are registered for that path.
// Defaults to a plain 405 with a status-text body and an Allow header.
func (r *Router) SetMethodNotAllowedHandler(h func(c *Ctx, allow []string)) {
	r.core.methodNotAllowed = h
}

func (r *Router) errHandler() func(c *Ctx, err error) {
	if r.core.errorHandler != nil {
		return r.core.errorHandler
	}
	return defaultErrorHandler(r.core.sanitizeErrors)
}

// Use appends middleware to this scope. It affects routes registered on
// this scope (or its descendants created afterward) from this point on —
// it does not retroactively affect already-created child scopes or routes
// already registered. There is no separate pattern-keyed middleware table:
// "scoping to a pattern" here means mounting a Prefix scope and calling Use
// on it, so middleware can only reach a node through its own ancestor
// chain, never a sibling pattern of the matched node.
func (r *Router) Use(mw ...Middleware) {
	r.mw = append(r.mw, mw...)
}

func joinPath(base, p string) string {
	base = strings.TrimSuffix(base, "/")
	p = strings.TrimSuffix(strings.TrimPrefix(p, "/"), "/")
	switch {
	case base == "" && p == "":
		return "/"
	case p == "":
		return base
	case base == "":
		return "/" + p
	default:
		return base + "/" + p
	}
}

func (r *Router) fullPath(p string) string { return joinPath(r.base, p) }

func cloneMW(mw []Middleware) []Middleware {
	return append([]Middleware(nil), mw...)
}

// Prefix returns a child scope mounted under prefix, inheriting this
// scope's current middleware.
func (r *Router) Prefix(prefix string) *Router {
	return &Router{core: r.core, base: joinPath(r.base, prefix), mw: cloneMW(r.mw), Compat: &httpRouter{r: r}}
}

// Group is an alias for Prefix.
func (r *Router) Group(prefix string) *Router { return r.Prefix(prefix) }

// With returns a child scope at the same base path with extra middleware
// appended to this scope's current chain.
func (r *Router) With(mw ...Middleware) *Router {
	next := append(cloneMW(r.mw), mw...)
	return &Router{core: r.core, base: r.base, mw: next, Compat: &httpRouter{r: r}}
}

// Handle registers h for method and pattern under this scope's base path.
func (r *Router) Handle(method, pattern string, h Handler) {
	r.core.addRoute(method, r.fullPath(pattern), &routeEntry{mw: cloneMW(r.mw), handler: h})
}

func (r *Router) Get(pattern string, h Handler)    { r.Handle(http.MethodGet, pattern, h) }
func (r *Router) Post(pattern string, h Handler)   { r.Handle(http.MethodPost, pattern, h) }
func (r *Router) Put(pattern string, h Handler)    { r.Handle(http.MethodPut, pattern, h) }
func (r *Router) Patch(pattern string, h Handler)  { r.Handle(http.MethodPatch, pattern, h) }
func (r *Router) Delete(pattern string, h Handler) { r.Handle(http.MethodDelete, pattern, h) }
func (r *Router) Head(pattern string, h Handler)   { r.Handle(http.MethodHead, pattern, h) }
func (r *Router) Options(pattern string, h Handler) {
	r.Handle(http.MethodOptions, pattern, h)
}

// Static serves files out of fsys under prefix, using Relic's own static
// file engine (Range/conditional-request/ETag aware). A request for the
// bare prefix (no trailing slash) is redirected to prefix+"/".
func (r *Router) Static(prefix string, fsys http.FileSystem) {
	base := strings.TrimSuffix(r.fullPath(prefix), "/")
	if base == "" {
		base = "/"
	}
	handler := newStaticHandler(fsys)

	fsHandler := func(c *Ctx) error {
		rest := c.Param("*")
		return handler(c, rest)
	}

	if base == "/" {
		// A root mount has no distinct "bare path" to redirect from — "/"
		// itself must serve the index, since the trie's tail match never
		// fires for a zero-segment lookup.
		r.Handle(http.MethodGet, "", fsHandler)
		r.Handle(http.MethodHead, "", fsHandler)
	} else {
		redirectTarget := base + "/"
		r.Handle(http.MethodGet, prefix, func(c *Ctx) error {
			if strings.HasSuffix(c.Request().URL.Path, "/") {
				return handler(c, "")
			}
			return c.Redirect(http.StatusMovedPermanently, redirectTarget)
		})
	}

	tailPattern := prefix
	if !strings.HasSuffix(tailPattern, "/") {
		tailPattern += "/"
	}
	tailPattern += "**"

	r.Handle(http.MethodGet, tailPattern, fsHandler)
	r.Handle(http.MethodHead, tailPattern, fsHandler)
}

// ServeHTTP dispatches req through any Compat std-middleware, then the
// trie-routed Relic pipeline.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.core.stdChain(http.HandlerFunc(r.serve)).ServeHTTP(w, req)
}

func (r *Router) serve(w http.ResponseWriter, req *http.Request) {
	c := newCtx(w, req, r)

	if r.core.strictHeaders && req.Header.Get("Content-Type") != "" {
		if _, err := c.RequestHeader().ContentType(); err != nil {
			c.Status(http.StatusBadRequest)
			_, _ = c.WriteString(http.StatusText(http.StatusBadRequest))
			return
		}
	}

	path := req.URL.Path
	if r.core.hostBasedRouting {
		path = req.Host + path
	}
	entry, _, mismatch, allow := r.core.lookup(req.Method, path, req)
	if entry == nil {
		if mismatch {
			r.core.methodNotAllowed(c, allow)
			return
		}
		r.core.notFound(c)
		return
	}

	h := compose(entry.mw, entry.handler)
	r.invoke(c, h)
}

func (r *Router) invoke(c *Ctx, h Handler) {
	defer func() {
		if v := recover(); v != nil {
			pe := &PanicError{Value: v, Stack: captureStack()}
			r.errHandler()(c, pe)
		}
	}()
	if err := h(c); err != nil {
		r.errHandler()(c, err)
	}
}
