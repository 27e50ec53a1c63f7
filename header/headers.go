// Package header is Relic's typed header codec layer: a lazily-parsed,
// case-insensitive multimap over raw header values, with ~40 standard HTTP
// headers each carrying a Parse/Encode codec.
//
// Parsing is lazy: raw values are kept verbatim until a typed accessor is
// read. On first access the codec runs and the result is cached on the
// Headers value; a cache miss re-runs the codec; failure is an
// *relic.Error of kind InvalidHeader, tagged with the header name.
// Mutation goes through typed setters that run the encoder and overwrite
// the raw values, so the wire form is always consistent with the last
// typed write.
package header

import (
	"net/http"
	"net/textproto"
	"strings"
	"sync"

	"golang.org/x/net/http/httpguts"
)

// errFn lets this package raise relic.Error without an import cycle
// (relic imports header, not vice versa). relic's package init installs
// the real constructor through SetErrorConstructor.
var errFn = func(name, reason string) error {
	return &plainHeaderError{name: name, reason: reason}
}

// SetErrorConstructor lets the relic package install its own *Error
// constructor so InvalidHeader failures surfaced by this package carry
// relic.Kind tagging. Called once from relic's init.
func SetErrorConstructor(fn func(name, reason string) error) {
	errFn = fn
}

type plainHeaderError struct {
	name, reason string
}

func (e *plainHeaderError) Error() string {
	return "header: invalid " + e.name + ": " + e.reason
}

// Headers wraps an http.Header (the canonical Go multimap, which already
// preserves per-key insertion order and is what ResponseWriter/Request use
// natively) with a lazy typed-parse cache and codec-enforced mutation.
type Headers struct {
	mu    sync.Mutex
	raw   http.Header
	cache map[string]cacheEntry
}

type cacheEntry struct {
	val any
	err error
}

// New wraps raw in place — mutations through the returned Headers are
// visible through raw and vice versa, since raw is typically the live
// http.Header backing an *http.Request or http.ResponseWriter.
func New(raw http.Header) *Headers {
	if raw == nil {
		raw = make(http.Header)
	}
	return &Headers{raw: raw, cache: make(map[string]cacheEntry)}
}

func canonical(name string) string {
	return textproto.CanonicalMIMEHeaderKey(name)
}

// Values returns the raw values for name, case-insensitively, in the order
// they were added.
func (h *Headers) Values(name string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	v := h.raw.Values(canonical(name))
	out := make([]string, len(v))
	copy(out, v)
	return out
}

// Get returns the first raw value for name, or "".
func (h *Headers) Get(name string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.raw.Get(canonical(name))
}

// Has reports whether name has at least one raw value.
func (h *Headers) Has(name string) bool {
	return len(h.Values(name)) > 0
}

// validateName enforces the RFC 7230 token grammar for header names.
func validateName(name string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return errFn(name, "header name is not a valid RFC 7230 token")
	}
	return nil
}

// validateValues rejects CR/LF and other invalid field-value bytes.
func validateValues(name string, values []string) error {
	for _, v := range values {
		if !httpguts.ValidHeaderFieldValue(v) {
			return errFn(name, "header value contains CR/LF or other invalid bytes")
		}
	}
	return nil
}

// Set replaces all raw values for name. It validates the name and each
// value against RFC 7230 grammar.
func (h *Headers) Set(name string, values ...string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateValues(name, values); err != nil {
		return err
	}
	key := canonical(name)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.raw.Del(key)
	for _, v := range values {
		h.raw.Add(key, v)
	}
	delete(h.cache, key)
	return nil
}

// Add appends one raw value for name.
func (h *Headers) Add(name, value string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateValues(name, []string{value}); err != nil {
		return err
	}
	key := canonical(name)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.raw.Add(key, value)
	delete(h.cache, key)
	return nil
}

// Del removes all raw values for name.
func (h *Headers) Del(name string) {
	key := canonical(name)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.raw.Del(key)
	delete(h.cache, key)
}

// Raw returns the backing http.Header. Callers that mutate it directly
// bypass codec validation and must call InvalidateCache themselves.
func (h *Headers) Raw() http.Header { return h.raw }

// InvalidateCache drops any cached typed value for name (or all, if name
// is empty), forcing the next typed access to re-run its codec.
func (h *Headers) InvalidateCache(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if name == "" {
		h.cache = make(map[string]cacheEntry)
		return
	}
	delete(h.cache, canonical(name))
}

// typed runs parse lazily for header name, caching the result (success or
// failure) so repeated reads do not re-parse.
func typed[T any](h *Headers, name string, parse func([]string) (T, error)) (T, error) {
	key := canonical(name)
	h.mu.Lock()
	if e, ok := h.cache[key]; ok {
		h.mu.Unlock()
		if e.err != nil {
			var zero T
			return zero, e.err
		}
		return e.val.(T), nil
	}
	raw := h.raw.Values(key)
	h.mu.Unlock()

	val, err := parse(raw)

	h.mu.Lock()
	h.cache[key] = cacheEntry{val: val, err: err}
	h.mu.Unlock()

	if err != nil {
		var zero T
		return zero, err
	}
	return val, nil
}

// setTyped runs encode and overwrites the raw values, then seeds the cache
// with the value that was just set (avoiding an immediate re-parse).
func setTyped[T any](h *Headers, name string, val T, encode func(T) []string) error {
	raws := encode(val)
	if err := validateValues(name, raws); err != nil {
		return err
	}
	key := canonical(name)
	h.mu.Lock()
	h.raw.Del(key)
	for _, v := range raws {
		h.raw.Add(key, v)
	}
	h.cache[key] = cacheEntry{val: val}
	h.mu.Unlock()
	return nil
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func joinCommaList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	return []string{strings.Join(items, ", ")}
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
