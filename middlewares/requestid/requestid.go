// Package requestid attaches a request ID to every request, generating one
// when the caller didn't supply it and echoing it back on the response.
package requestid

import (
	"github.com/google/uuid"

	"github.com/relic-http/relic"
)

// Options configures the middleware.
type Options struct {
	// Header names the request/response header carrying the ID. Defaults
	// to "X-Request-ID".
	Header string
	// Generator produces a new ID when the incoming request carries none.
	// Defaults to a random UUID v4.
	Generator func() string
}

var idProperty = relic.NewContextProperty[string]()

// New returns the middleware with default options.
func New() relic.Middleware {
	return WithOptions(Options{})
}

// WithOptions returns the middleware configured per opts.
func WithOptions(opts Options) relic.Middleware {
	header := opts.Header
	if header == "" {
		header = "X-Request-ID"
	}
	gen := opts.Generator
	if gen == nil {
		gen = generateID
	}

	return func(next relic.Handler) relic.Handler {
		return func(c *relic.Ctx) error {
			id := c.Request().Header.Get(header)
			if id == "" {
				id = gen()
			}
			c.Header().Raw().Set(header, id)
			idProperty.Set(c.Token(), id)
			return next(c)
		}
	}
}

// generateID returns a random UUID v4 string, in the canonical
// xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx form.
func generateID() string {
	return uuid.NewString()
}

// FromContext returns the request ID set earlier in the chain by New or
// WithOptions, or "" if none was set (e.g. the middleware isn't mounted).
func FromContext(c *relic.Ctx) string {
	v, _ := idProperty.GetOrNull(c.Token())
	return v
}

// Get is an alias for FromContext.
func Get(c *relic.Ctx) string { return FromContext(c) }
