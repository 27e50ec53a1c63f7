// Package recover provides an opt-in panic-recovery middleware with its own
// configurable error handler, logger, and stack-trace behavior — distinct
// from the router's own built-in recovery, which always delegates to the
// router's single ErrorHandler.
package recover

import (
	"log/slog"
	"net/http"
	"runtime"

	"github.com/relic-http/relic"
)

// Options configures the middleware.
type Options struct {
	// ErrorHandler, if set, receives the recovered value and stack trace
	// and produces the response. Defaults to writing a plain 500.
	ErrorHandler func(c *relic.Ctx, err any, stack []byte) error
	// Logger receives a "panic recovered" entry, unless ErrorHandler is set
	// (which takes over responsibility for reporting). Defaults to the
	// Ctx's own logger.
	Logger *slog.Logger
	// DisablePrintStack omits the stack trace from the default log entry.
	DisablePrintStack bool
	// StackSize caps the captured stack trace, in bytes. Defaults to 4096.
	StackSize int
}

// New returns the middleware with default options.
func New() relic.Middleware {
	return WithOptions(Options{})
}

// WithOptions returns the middleware configured per opts.
func WithOptions(opts Options) relic.Middleware {
	stackSize := opts.StackSize
	if stackSize <= 0 {
		stackSize = 4096
	}

	return func(next relic.Handler) relic.Handler {
		return func(c *relic.Ctx) (err error) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				stack := captureStack(stackSize)

				if opts.ErrorHandler != nil {
					err = opts.ErrorHandler(c, v, stack)
					return
				}

				logger := opts.Logger
				if logger == nil {
					logger = c.Logger()
				}
				if opts.DisablePrintStack {
					logger.Error("panic recovered", slog.Any("value", v))
				} else {
					logger.Error("panic recovered", slog.Any("value", v), slog.String("stack", string(stack)))
				}

				c.Status(http.StatusInternalServerError)
				_, werr := c.WriteString(http.StatusText(http.StatusInternalServerError))
				err = werr
			}()
			return next(c)
		}
	}
}

func captureStack(max int) []byte {
	buf := make([]byte, max)
	n := runtime.Stack(buf, false)
	return buf[:n]
}
