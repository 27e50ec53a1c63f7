package body

import (
	"errors"
	"io"
	"net/http"
)

// overflowError marks capReadCloser's own limit-exceeded condition, the
// no-ResponseWriter counterpart to *http.MaxBytesError.
type overflowError struct{}

func (e *overflowError) Error() string { return "body exceeds configured limit" }

// LimitReader wraps r so that reading more than maxLength bytes fails with
// a PayloadTooLarge error instead of silently truncating. When w is
// supplied (the server-side case), it delegates to http.MaxBytesReader,
// which additionally arranges for the connection to be closed rather than
// kept alive once the limit is exceeded.
func LimitReader(w http.ResponseWriter, rc io.ReadCloser, maxLength int64) io.ReadCloser {
	if w != nil {
		return &translatingReadCloser{ReadCloser: http.MaxBytesReader(w, rc, maxLength), limit: maxLength}
	}
	return &translatingReadCloser{ReadCloser: &capReadCloser{r: rc, limit: maxLength}, limit: maxLength}
}

// translatingReadCloser rewrites the underlying reader's overflow error
// (an *http.MaxBytesError, or our own overflowError for the no-ResponseWriter
// path) into body's PayloadTooLarge error.
type translatingReadCloser struct {
	io.ReadCloser
	limit int64
}

func (t *translatingReadCloser) Read(p []byte) (int, error) {
	n, err := t.ReadCloser.Read(p)
	if err == nil {
		return n, nil
	}
	var mbe *http.MaxBytesError
	var oe *overflowError
	if errors.As(err, &mbe) || errors.As(err, &oe) {
		return n, errFn("PayloadTooLarge", "body exceeds configured limit")
	}
	return n, err
}

// capReadCloser is a minimal io.ReadCloser-preserving byte-limiter for
// callers with no http.ResponseWriter to hand http.MaxBytesReader (e.g.
// reading a client response body, or a Body built outside a server
// request). It does not attempt the connection-closing side effect
// http.MaxBytesReader gets from its ResponseWriter — that only applies
// server-side, where LimitReader is called with w non-nil instead.
type capReadCloser struct {
	r     io.ReadCloser
	limit int64
	n     int64 // cumulative bytes read so far
}

func (c *capReadCloser) Read(p []byte) (int, error) {
	if c.n > c.limit {
		return 0, &overflowError{}
	}
	// Cap the read at limit+1 so a source with exactly limit bytes still
	// reaches its own EOF normally, while one with more trips the n>limit
	// check below instead of silently truncating.
	if int64(len(p)) > c.limit-c.n+1 {
		p = p[:c.limit-c.n+1]
	}
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.n > c.limit {
		return n, &overflowError{}
	}
	return n, err
}

func (c *capReadCloser) Close() error { return c.r.Close() }

// FromRequest builds a Body from an inbound request's stream, capping it
// at maxLength (0 means unlimited) and seeding contentLength from the
// request's declared Content-Length when it is non-negative.
func FromRequest(w http.ResponseWriter, contentLength int64, rc io.ReadCloser, maxLength int64, declared *Type) *Body {
	var stream io.Reader = rc
	if maxLength > 0 {
		stream = LimitReader(w, rc, maxLength)
	}
	return FromStream(stream, contentLength, declared)
}
