package relic

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/relic-http/relic/body"
	"github.com/relic-http/relic/header"
)

// ctxState names the terminal action a response has committed to, per the
// context state machine: a fresh Ctx starts New and moves to Response or
// Hijacked exactly once. Response may repeat — further Write calls just
// continue the body — but nothing may follow a Hijack, and a Hijack cannot
// follow a Response. A WebSocket upgrade (gobwas/ws included) takes over
// the connection through the same Hijack call a raw net/http hijack would
// use, so it lands in ctxStateHijacked too; there is no separate signal
// for it to report at this layer.
type ctxState int32

const (
	ctxStateNew ctxState = iota
	ctxStateResponse
	ctxStateHijacked
)

// ctxWriter wraps the raw http.ResponseWriter with a pending/written status
// code, so Status can be set before anything is written and still take
// effect on the first real Write or WriteHeader. It implements Unwrap so
// http.ResponseController can reach the underlying Flusher/Hijacker/etc.
type ctxWriter struct {
	http.ResponseWriter
	status  int
	wrote   bool
	written int64
	state   ctxState
}

func newCtxWriter(w http.ResponseWriter) *ctxWriter {
	return &ctxWriter{ResponseWriter: w, status: http.StatusOK}
}

func (cw *ctxWriter) WriteHeader(code int) {
	if cw.wrote || cw.state == ctxStateHijacked {
		return
	}
	cw.wrote = true
	cw.state = ctxStateResponse
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *ctxWriter) Write(p []byte) (int, error) {
	if !cw.wrote {
		cw.WriteHeader(cw.status)
	}
	n, err := cw.ResponseWriter.Write(p)
	cw.written += int64(n)
	return n, err
}

func (cw *ctxWriter) Unwrap() http.ResponseWriter { return cw.ResponseWriter }

// Hijack delegates to the underlying ResponseWriter's Hijacker, so callers
// that type-assert http.ResponseWriter to http.Hijacker directly (rather
// than going through http.ResponseController) still see through the
// wrapper, e.g. a WebSocket upgrade library driving the handshake itself.
// It enforces the same state machine as WriteHeader: hijacking after a
// response has started, or hijacking twice, fails with KindInvalidState
// instead of reaching into the stdlib and getting its generic error (or,
// worse, corrupting an already-flushed response).
func (cw *ctxWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if cw.state == ctxStateHijacked {
		return nil, nil, NewError(KindInvalidState, "connection already hijacked")
	}
	if cw.wrote {
		return nil, nil, NewError(KindInvalidState, "cannot hijack: response already started")
	}
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	conn, brw, err := hj.Hijack()
	if err != nil {
		return nil, nil, err
	}
	cw.state = ctxStateHijacked
	return conn, brw, nil
}

// Ctx carries one request/response pair through the middleware pipeline. It
// is not safe for use after the handler that received it returns, and not
// safe for concurrent use by multiple goroutines without external
// synchronization (mirroring net/http's own Request/ResponseWriter
// contract).
type Ctx struct {
	w      http.ResponseWriter // raw, for identity
	resp   *ctxWriter
	req    *http.Request
	rc     *http.ResponseController
	router *Router
	logger *slog.Logger
	tok    *Token

	respHeaders *header.Headers
	reqHeaders  *header.Headers
}

func newCtx(w http.ResponseWriter, req *http.Request, r *Router) *Ctx {
	cw := newCtxWriter(w)
	c := &Ctx{
		w:      w,
		resp:   cw,
		req:    req,
		rc:     http.NewResponseController(cw),
		router: r,
		tok:    NewToken(),
	}
	if r != nil && r.Logger() != nil {
		c.logger = r.Logger()
	} else {
		c.logger = slog.Default()
	}
	return c
}

// Request returns the underlying *http.Request.
func (c *Ctx) Request() *http.Request { return c.req }

// Writer returns the raw http.ResponseWriter passed in for this request,
// unwrapped — callers that need status tracking should use Response.
func (c *Ctx) Writer() http.ResponseWriter { return c.w }

// Response returns the status-tracking ResponseWriter used by Ctx's own
// helpers (JSON, Text, File, ...). Writes through it are reflected in
// StatusCode.
func (c *Ctx) Response() http.ResponseWriter { return c.resp }

// SetWriter replaces the response writer mid-request (used by protocol
// upgrades) and rebuilds the response controller around it.
func (c *Ctx) SetWriter(w http.ResponseWriter) {
	c.w = w
	c.resp = newCtxWriter(w)
	c.rc = http.NewResponseController(c.resp)
	c.respHeaders = nil
}

// Header returns the typed header codec for the response.
func (c *Ctx) Header() *header.Headers {
	if c.respHeaders == nil {
		c.respHeaders = header.New(c.resp.Header())
	}
	return c.respHeaders
}

// RequestHeader returns the typed header codec for the request.
func (c *Ctx) RequestHeader() *header.Headers {
	if c.reqHeaders == nil {
		c.reqHeaders = header.New(c.req.Header)
	}
	return c.reqHeaders
}

// Context returns the request's context.
func (c *Ctx) Context() context.Context { return c.req.Context() }

// Token returns the stable identity object ContextProperty values are
// keyed on for this request. It is created once per Ctx and never
// changes, so a property Set early in the pipeline is visible to every
// later middleware and handler sharing this Ctx.
func (c *Ctx) Token() *Token { return c.tok }

// Logger returns the logger attached to this request (router logger, or
// slog.Default if the Ctx was built standalone).
func (c *Ctx) Logger() *slog.Logger { return c.logger }

// Status sets the status code to use on the next write through Response,
// Write, WriteString, or any Ctx response helper. It has no effect once the
// response header has already been sent, and none once the connection has
// been hijacked — unlike those other paths it cannot report InvalidState
// itself (it returns *Ctx for chaining, not an error), so callers relying
// on a status set after a hijack should check the error Write/Hijack/the
// JSON-etc. helpers return instead.
func (c *Ctx) Status(code int) *Ctx {
	if c.resp.wrote || c.resp.state == ctxStateHijacked {
		return c
	}
	c.resp.status = code
	return c
}

// StatusCode returns the pending or already-written status code.
func (c *Ctx) StatusCode() int { return c.resp.status }

// ResponseSize returns the number of response body bytes written so far.
func (c *Ctx) ResponseSize() int64 { return c.resp.written }

// respondable fails with KindInvalidState once the connection has been
// hijacked; a response can no longer be written through it. It is the
// shared guard behind Write and every Ctx response helper.
func (c *Ctx) respondable() error {
	if c.resp.state == ctxStateHijacked {
		return NewError(KindInvalidState, "cannot write a response: connection already hijacked")
	}
	return nil
}

// Write implements io.Writer against the status-tracking response.
func (c *Ctx) Write(p []byte) (int, error) {
	if err := c.respondable(); err != nil {
		return 0, err
	}
	return c.resp.Write(p)
}

// WriteString writes s through Write.
func (c *Ctx) WriteString(s string) (int, error) { return c.Write([]byte(s)) }

// Param returns a path parameter bound by the router's trie match.
func (c *Ctx) Param(name string) string { return c.req.PathValue(name) }

// Query returns the first value of a query parameter.
func (c *Ctx) Query(name string) string {
	if c.req.URL == nil {
		return ""
	}
	return c.req.URL.Query().Get(name)
}

// QueryValues returns the parsed query string.
func (c *Ctx) QueryValues() url.Values {
	if c.req.URL == nil {
		return url.Values{}
	}
	return c.req.URL.Query()
}

// Form parses and returns the request's URL and body form values.
func (c *Ctx) Form() (url.Values, error) {
	if err := c.req.ParseForm(); err != nil {
		return nil, err
	}
	return c.req.Form, nil
}

// MultipartForm parses a multipart/form-data body, holding up to maxMemory
// bytes in memory and spilling the rest to disk. The returned cleanup
// removes any temporary files created for file parts.
func (c *Ctx) MultipartForm(maxMemory int64) (*multipart.Form, func(), error) {
	if err := c.req.ParseMultipartForm(maxMemory); err != nil {
		return nil, func() {}, err
	}
	form := c.req.MultipartForm
	return form, func() { _ = form.RemoveAll() }, nil
}

// Cookie returns a named request cookie.
func (c *Ctx) Cookie(name string) (*http.Cookie, error) { return c.req.Cookie(name) }

// SetCookie appends a Set-Cookie response header.
func (c *Ctx) SetCookie(ck *http.Cookie) { http.SetCookie(c.resp, ck) }

// Body returns the request's payload as a one-shot body.Body, capped at
// maxLength bytes (0 means unlimited; App.MaxRequestBodyBytes returns the
// configured cap to pass here).
// Its declared Type comes from a parseable Content-Type header; absent or
// malformed Content-Type falls back to sniffing on first read.
func (c *Ctx) Body(maxLength int64) *body.Body {
	var declared *body.Type
	if ct, err := c.RequestHeader().ContentType(); err == nil {
		declared = &body.Type{MIME: ct.Type, Encoding: ct.Parameters["charset"]}
	}
	return body.FromRequest(c.resp, c.req.ContentLength, c.req.Body, maxLength, declared)
}

// Bind decodes a JSON request body into v, rejecting unknown fields and
// trailing data. maxBytes, if > 0, caps the body read via
// http.MaxBytesReader.
func (c *Ctx) Bind(v any, maxBytes int64) error {
	var r io.Reader = c.req.Body
	if maxBytes > 0 {
		r = http.MaxBytesReader(c.resp, c.req.Body, maxBytes)
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("relic: trailing data after JSON value")
	}
	return nil
}

// NoContent writes a 204 response with no body.
func (c *Ctx) NoContent() error {
	if err := c.respondable(); err != nil {
		return err
	}
	c.resp.WriteHeader(http.StatusNoContent)
	return nil
}

// Redirect writes a redirect response. code defaults to 302 (Found) when 0.
func (c *Ctx) Redirect(code int, location string) error {
	if err := c.respondable(); err != nil {
		return err
	}
	if code == 0 {
		code = http.StatusFound
	}
	if err := c.Header().SetLocation(location); err != nil {
		return err
	}
	c.resp.WriteHeader(code)
	return nil
}

func setContentTypeIfAbsent(h *header.Headers, ct string) {
	if h.Get("Content-Type") == "" {
		_ = h.Set("Content-Type", ct)
	}
}

// JSON encodes v as JSON and writes it with the given status.
func (c *Ctx) JSON(code int, v any) error {
	if err := c.respondable(); err != nil {
		return err
	}
	setContentTypeIfAbsent(c.Header(), "application/json; charset=utf-8")
	c.Status(code)
	return json.NewEncoder(c.resp).Encode(v)
}

// HTML writes s as an HTML response body.
func (c *Ctx) HTML(code int, s string) error {
	if err := c.respondable(); err != nil {
		return err
	}
	setContentTypeIfAbsent(c.Header(), "text/html; charset=utf-8")
	c.Status(code)
	_, err := io.WriteString(c.resp, s)
	return err
}

// Text writes s as a plain-text response, falling back to
// application/octet-stream if s is not valid UTF-8.
func (c *Ctx) Text(code int, s string) error {
	if err := c.respondable(); err != nil {
		return err
	}
	if utf8.ValidString(s) {
		setContentTypeIfAbsent(c.Header(), "text/plain; charset=utf-8")
	} else {
		setContentTypeIfAbsent(c.Header(), "application/octet-stream")
	}
	c.Status(code)
	_, err := io.WriteString(c.resp, s)
	return err
}

// Bytes writes b as the response body with the given content type
// (application/octet-stream if contentType is empty and none is set).
func (c *Ctx) Bytes(code int, b []byte, contentType string) error {
	if err := c.respondable(); err != nil {
		return err
	}
	if contentType != "" {
		_ = c.Header().Set("Content-Type", contentType)
	} else {
		setContentTypeIfAbsent(c.Header(), "application/octet-stream")
	}
	c.Status(code)
	_, err := c.resp.Write(b)
	return err
}

// File serves a local file's contents. When code is 0 the currently pending
// Ctx status is used, so a prior Status call takes effect; otherwise code
// overrides it.
func (c *Ctx) File(code int, path string) error {
	if err := c.respondable(); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return NewError(KindPathNotFound, err.Error())
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return NewError(KindPathNotFound, err.Error())
	}
	if fi.IsDir() {
		return NewError(KindPathNotFound, "path is a directory")
	}

	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		setContentTypeIfAbsent(c.Header(), ct)
	}
	_ = c.Header().Set("Content-Length", strconv.FormatInt(fi.Size(), 10))

	if code != 0 {
		c.Status(code)
	}
	_, err = io.Copy(c.resp, f)
	return err
}

// Download serves path as an attachment, suggesting filename to the client.
func (c *Ctx) Download(code int, path, filename string) error {
	if err := c.Header().SetContentDisposition(header.ContentDisposition{Type: "attachment", Filename: filename}); err != nil {
		return err
	}
	return c.File(code, path)
}

// Stream calls fn with the response writer, setting a default content type
// if none is set yet. It does not set a status beyond whatever is already
// pending.
func (c *Ctx) Stream(fn func(w io.Writer) error) error {
	if err := c.respondable(); err != nil {
		return err
	}
	setContentTypeIfAbsent(c.Header(), "application/octet-stream")
	return fn(c.resp)
}

// supportsFlush reports whether w (or anything it Unwraps to) implements
// http.Flusher.
func supportsFlush(w http.ResponseWriter) bool {
	for {
		if _, ok := w.(http.Flusher); ok {
			return true
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return false
		}
		w = u.Unwrap()
	}
}

// SSE streams values from ch as server-sent events, JSON-encoding each one,
// until ch is closed (emitting a final "end" event) or the request context
// is canceled.
func (c *Ctx) SSE(ch <-chan any) error {
	if err := c.respondable(); err != nil {
		return err
	}
	if !supportsFlush(c.resp) {
		return NewError(KindInvalidState, "response writer does not support flushing")
	}
	_ = c.Header().Set("Content-Type", "text/event-stream")
	_ = c.Header().Set("Cache-Control", "no-cache")
	_ = c.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	for {
		select {
		case <-c.req.Context().Done():
			return c.req.Context().Err()
		case v, open := <-ch:
			if !open {
				if _, err := fmt.Fprint(c.resp, "event: end\ndata: {}\n\n"); err != nil {
					return err
				}
				return c.rc.Flush()
			}
			b, err := json.Marshal(v)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(c.resp, "data: %s\n\n", b); err != nil {
				return err
			}
			if err := c.rc.Flush(); err != nil {
				return err
			}
		}
	}
}

// Flush flushes any buffered response data, if the underlying writer
// supports it.
func (c *Ctx) Flush() { _ = c.rc.Flush() }

// SetWriteDeadline sets the write deadline for the underlying connection,
// via http.ResponseController.
func (c *Ctx) SetWriteDeadline(t time.Time) error { return c.rc.SetWriteDeadline(t) }

// EnableFullDuplex allows concurrent reads and writes on the connection.
func (c *Ctx) EnableFullDuplex() error { return c.rc.EnableFullDuplex() }

// Hijack takes over the underlying connection. It fails with
// KindInvalidState if the response has already started or the connection
// has already been hijacked.
func (c *Ctx) Hijack() (net.Conn, *bufio.ReadWriter, error) { return c.rc.Hijack() }
