// Package body implements Relic's body engine: a one-shot readable stream
// with an optional declared length and MIME type, constructed from text,
// bytes, or an arbitrary io.Reader.
package body

import (
	"bytes"
	"io"
	"sync"
)

// errFn builds the error a consumed-twice or malformed body raises. It is
// a package variable rather than a direct dependency on the root relic
// package's Error type to avoid an import cycle — relic imports body, so
// body cannot import relic back. SetErrorConstructor lets relic's init
// wire its own *Error values in, the same pattern header uses.
var errFn = func(kind, reason string) error {
	return plainError(kind + ": " + reason)
}

type plainError string

func (e plainError) Error() string { return string(e) }

// SetErrorConstructor installs the function body uses to build errors for
// AlreadyConsumed and PayloadTooLarge conditions. kind is one of those two
// strings. Called once from relic's init().
func SetErrorConstructor(fn func(kind, reason string) error) {
	errFn = fn
}

// Type is a body's MIME type plus an optional charset, either declared by
// the caller or inferred by Sniff.
type Type struct {
	MIME     string
	Encoding string
}

// Body is a one-shot readable request or response payload. Read and
// ReadAsString each consume the underlying stream; calling either a second
// time fails with an AlreadyConsumed error.
type Body struct {
	stream        io.Reader
	contentLength int64 // -1 when unknown
	bodyType      *Type

	mu       sync.Mutex
	consumed bool
}

// FromText builds a Body from s, encoded as bytes under encoding (which
// only affects how s's bytes are interpreted on the way back out via
// ReadAsString — Go strings are already UTF-8, so the stored bytes are
// s's UTF-8 encoding regardless). contentLength is the encoded byte count.
// The MIME type is inferred from s's content unless declared is non-nil.
func FromText(s string, encoding string, declared *Type) *Body {
	data := []byte(s)
	b := &Body{stream: bytes.NewReader(data), contentLength: int64(len(data))}
	if declared != nil {
		b.bodyType = declared
	} else {
		t := Sniff(data)
		if encoding != "" {
			t.Encoding = encoding
		}
		b.bodyType = &t
	}
	return b
}

// FromBytes builds a Body from data, with its MIME type inferred by
// magic-byte sniffing unless declared is non-nil.
func FromBytes(data []byte, declared *Type) *Body {
	b := &Body{stream: bytes.NewReader(data), contentLength: int64(len(data))}
	if declared != nil {
		b.bodyType = declared
	} else {
		t := Sniff(data)
		b.bodyType = &t
	}
	return b
}

// FromStream builds a Body around an arbitrary reader. contentLength is
// optional; pass -1 when the length is unknown, so the adapter falls back
// to chunked framing. declared, if non-nil, skips MIME sniffing — a
// stream's content can't be sniffed without consuming it.
func FromStream(r io.Reader, contentLength int64, declared *Type) *Body {
	b := &Body{stream: r, contentLength: contentLength}
	if declared != nil {
		b.bodyType = declared
	}
	return b
}

// Empty returns a zero-length Body.
func Empty() *Body {
	return &Body{stream: bytes.NewReader(nil), contentLength: 0, bodyType: &Type{MIME: "application/octet-stream"}}
}

// ContentLength returns the declared byte count, or -1 if unknown.
func (b *Body) ContentLength() int64 { return b.contentLength }

// Type returns the body's MIME type and whether one is known. A Body built
// from FromStream with no declared type reports ok=false until read.
func (b *Body) Type() (Type, bool) {
	if b.bodyType == nil {
		return Type{}, false
	}
	return *b.bodyType, true
}

// consume marks the stream read and returns its full contents, or an
// AlreadyConsumed error on a second call. Unlike sniffing at construction,
// streamed bodies get their type inferred here, on the actual bytes read.
func (b *Body) consume() ([]byte, error) {
	b.mu.Lock()
	if b.consumed {
		b.mu.Unlock()
		return nil, errFn("AlreadyConsumed", "body already read")
	}
	b.consumed = true
	b.mu.Unlock()

	data, err := io.ReadAll(b.stream)
	if err != nil {
		return nil, err
	}
	if b.bodyType == nil {
		t := Sniff(data)
		b.bodyType = &t
	}
	return data, nil
}

// Read consumes and returns the body's raw bytes.
func (b *Body) Read() ([]byte, error) {
	return b.consume()
}

// ReadAsString consumes the body and decodes it as text. The charset
// consulted is, in priority order, the body's declared Type.Encoding,
// then encoding (the caller-supplied fallback) — both are purely
// informational today, since Go strings are UTF-8 already and Relic
// carries no charset-conversion library; a body declared in another
// charset is still returned as its raw bytes reinterpreted as UTF-8.
// Callers expecting a non-UTF-8 charset should decode the bytes from
// Read themselves with an explicit decoder.
func (b *Body) ReadAsString(encoding string) (string, error) {
	data, err := b.consume()
	if err != nil {
		return "", err
	}
	return string(data), nil
}
