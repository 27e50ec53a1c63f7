package relic

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// Mode selects the Logger middleware's output shape.
type Mode int

const (
	// Auto picks Dev when Output is an interactive terminal, Prod otherwise.
	Auto Mode = iota
	// Dev renders a human-readable line per request, colored when the
	// terminal supports it.
	Dev
	// Prod renders one JSON object per request, suited to log collectors.
	Prod
)

// LoggerOptions configures the Logger middleware.
type LoggerOptions struct {
	Mode Mode
	// Output receives log lines when Logger is nil. Defaults to os.Stderr.
	Output io.Writer
	// Color forces the colored Dev handler regardless of terminal
	// detection. Ignored in Prod.
	Color bool
	// UserAgent includes the request's User-Agent in each log line.
	UserAgent bool
	// RequestIDHeader names the header carrying a caller-supplied request
	// ID and the header Logger echoes a generated one onto. Defaults to
	// "X-Request-Id".
	RequestIDHeader string
	// RequestIDGen generates a request ID when the incoming request
	// carries none. If nil, requests without one are logged without a
	// request_id field.
	RequestIDGen func() string
	// TraceExtractor pulls trace/span identifiers out of the request
	// context, for logs that need to correlate with distributed tracing.
	TraceExtractor func(ctx context.Context) (traceID, spanID string, sampled bool)
	// Logger, if set, is used directly and Mode/Output/Color are ignored.
	Logger *slog.Logger
}

// Logger returns a middleware that logs one structured entry per request:
// method, path, host, query, status, duration, and optionally request ID,
// user agent, trace context, and the handler's error.
func Logger(opts LoggerOptions) Middleware {
	logger := opts.Logger
	textual := false

	if logger == nil {
		out := opts.Output
		if out == nil {
			out = os.Stderr
		}
		mode := opts.Mode
		if mode == Auto {
			if isTerminal(out) {
				mode = Dev
			} else {
				mode = Prod
			}
		}

		var handler slog.Handler
		switch {
		case mode == Dev && (opts.Color || supportsColorEnv()):
			handler = newColorTextHandler(out, &slog.HandlerOptions{})
			textual = true
		case mode == Dev:
			handler = slog.NewTextHandler(out, &slog.HandlerOptions{})
			textual = true
		default:
			handler = slog.NewJSONHandler(out, &slog.HandlerOptions{})
		}
		logger = slog.New(handler)
	}

	reqIDHeader := opts.RequestIDHeader
	if reqIDHeader == "" {
		reqIDHeader = "X-Request-Id"
	}

	return func(next Handler) Handler {
		return func(c *Ctx) error {
			start := time.Now()

			id := c.Request().Header.Get(reqIDHeader)
			if id == "" && opts.RequestIDGen != nil {
				id = opts.RequestIDGen()
			}
			if id != "" {
				c.Header().Set(reqIDHeader, id)
			}

			err := next(c)

			status := c.StatusCode()
			elapsed := time.Since(start)

			attrs := []slog.Attr{
				slog.Int("status", status),
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.String("host", c.Request().Host),
				slog.String("query", c.Request().URL.RawQuery),
				slog.Int64("duration_ms", elapsed.Milliseconds()),
			}
			if id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if opts.UserAgent {
				attrs = append(attrs, slog.String("user_agent", c.Request().UserAgent()))
			}
			if opts.TraceExtractor != nil {
				if traceID, spanID, sampled := opts.TraceExtractor(c.Context()); traceID != "" {
					attrs = append(attrs,
						slog.String("trace_id", traceID),
						slog.String("span_id", spanID),
						slog.Bool("trace_sampled", sampled),
					)
				}
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			if textual {
				attrs = append(attrs, slog.String("latency_human", humanDuration(elapsed)))
			}

			logger.LogAttrs(c.Context(), levelFor(status, err), "request", attrs...)

			return err
		}
	}
}

// levelFor maps a response status and handler error to a log level: any
// error or a 5xx status is Error, a 4xx status is Warn, everything else
// is Info.
func levelFor(status int, err error) slog.Level {
	switch {
	case err != nil || status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// humanDuration renders d at whichever unit (ns/µs/ms/s) keeps the
// mantissa readable, for Dev-mode log lines.
func humanDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fµs", float64(d.Nanoseconds())/1e3)
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1e6)
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// attrInt extracts an integer value from a numeric slog.Attr, whichever
// of the int64/uint64/float64 kinds it was constructed with.
func attrInt(a slog.Attr) (int64, bool) {
	switch a.Value.Kind() {
	case slog.KindInt64:
		return a.Value.Int64(), true
	case slog.KindUint64:
		return int64(a.Value.Uint64()), true
	case slog.KindFloat64:
		return int64(a.Value.Float64()), true
	default:
		return 0, false
	}
}

// supportsColorEnv reports whether the environment requests ANSI color
// output, following the conventions NO_COLOR and FORCE_COLOR establish
// plus a basic TERM check.
func supportsColorEnv() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if runtime.GOOS == "windows" {
		return false
	}
	switch os.Getenv("TERM") {
	case "", "dumb":
		return false
	default:
		return true
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// colorTextHandler is a minimal slog.Handler rendering one "key=value"
// line per record, coloring the level tag and a "status" attr by
// severity. Unlike slog.TextHandler it never quotes values, trading
// strict round-tripping for terser Dev-mode lines.
type colorTextHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	attrs []slog.Attr
}

func newColorTextHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	h := &colorTextHandler{mu: &sync.Mutex{}, w: w, level: slog.LevelInfo}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func (h *colorTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed + "[ERROR]" + ansiReset
	case level >= slog.LevelWarn:
		return ansiYellow + "[WARN]" + ansiReset
	case level >= slog.LevelInfo:
		return ansiCyan + "[INFO]" + ansiReset
	default:
		return "[DEBUG]"
	}
}

func colorStatus(status int) string {
	switch {
	case status >= 500:
		return ansiRed + fmt.Sprint(status) + ansiReset
	case status >= 400:
		return ansiYellow + fmt.Sprint(status) + ansiReset
	default:
		return ansiGreen + fmt.Sprint(status) + ansiReset
	}
}

func (h *colorTextHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var b strings.Builder
	b.WriteString(levelTag(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	writeAttr := func(a slog.Attr) {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteByte('=')
		if a.Key == "status" {
			if n, ok := attrInt(a); ok {
				b.WriteString(colorStatus(int(n)))
				return
			}
		}
		b.WriteString(a.Value.String())
	}

	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(a)
		return true
	})
	b.WriteByte('\n')

	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *colorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &colorTextHandler{
		mu:    h.mu,
		w:     h.w,
		level: h.level,
		attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
	return next
}

// WithGroup is a no-op: this handler always renders a flat key=value
// line, which suits short Dev-mode request logs better than nesting.
func (h *colorTextHandler) WithGroup(string) slog.Handler { return h }
