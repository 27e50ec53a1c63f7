package relic

// Handler answers one request through a Ctx. A non-nil return is passed to
// the router's error handler; it is never written to the client directly.
type Handler func(c *Ctx) error

// Middleware wraps a Handler to run code before and/or after it — the onion
// model: Use(a, b) with a route handler h executes a(b(h)).
type Middleware func(next Handler) Handler

// compose builds the final Handler for a route by wrapping h with mws in
// registration order, so mws[0] is outermost.
func compose(mws []Middleware, h Handler) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
