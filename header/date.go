package header

import (
	"net/http"
	"strconv"
	"time"
)

// httpDateLayouts are the three date formats RFC 7231 §7.1.1.1 requires a
// recipient to accept, in preference order.
var httpDateLayouts = []string{
	time.RFC1123, // preferred: "Mon, 02 Jan 2006 15:04:05 GMT"
	time.RFC850,
	time.ANSIC,
}

func parseHTTPDate(raw string) (time.Time, error) {
	for _, layout := range httpDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errFn("Date", "not a valid HTTP-date: "+raw)
}

func formatHTTPDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// parseDateValue parses a single-value HTTP-date header identified by name
// (used for Date, Expires, Last-Modified, If-Modified-Since,
// If-Unmodified-Since).
func parseDateValue(name string, values []string) (time.Time, error) {
	if len(values) == 0 {
		return time.Time{}, errFn(name, "header absent")
	}
	t, err := parseHTTPDate(values[0])
	if err != nil {
		return time.Time{}, errFn(name, "not a valid HTTP-date: "+values[0])
	}
	return t, nil
}

func encodeDateValue(t time.Time) []string {
	return []string{formatHTTPDate(t)}
}

// Date returns the parsed Date header.
func (h *Headers) Date() (time.Time, error) {
	return typed(h, "Date", func(v []string) (time.Time, error) { return parseDateValue("Date", v) })
}

// SetDate encodes and stores the Date header.
func (h *Headers) SetDate(t time.Time) error {
	return setTyped(h, "Date", t, encodeDateValue)
}

// Expires returns the parsed Expires header.
func (h *Headers) Expires() (time.Time, error) {
	return typed(h, "Expires", func(v []string) (time.Time, error) { return parseDateValue("Expires", v) })
}

// SetExpires encodes and stores the Expires header.
func (h *Headers) SetExpires(t time.Time) error {
	return setTyped(h, "Expires", t, encodeDateValue)
}

// LastModified returns the parsed Last-Modified header.
func (h *Headers) LastModified() (time.Time, error) {
	return typed(h, "Last-Modified", func(v []string) (time.Time, error) { return parseDateValue("Last-Modified", v) })
}

// SetLastModified encodes and stores the Last-Modified header.
func (h *Headers) SetLastModified(t time.Time) error {
	return setTyped(h, "Last-Modified", t, encodeDateValue)
}

// IfModifiedSince returns the parsed If-Modified-Since header.
func (h *Headers) IfModifiedSince() (time.Time, error) {
	return typed(h, "If-Modified-Since", func(v []string) (time.Time, error) { return parseDateValue("If-Modified-Since", v) })
}

// SetIfModifiedSince encodes and stores the If-Modified-Since header.
func (h *Headers) SetIfModifiedSince(t time.Time) error {
	return setTyped(h, "If-Modified-Since", t, encodeDateValue)
}

// IfUnmodifiedSince returns the parsed If-Unmodified-Since header.
func (h *Headers) IfUnmodifiedSince() (time.Time, error) {
	return typed(h, "If-Unmodified-Since", func(v []string) (time.Time, error) { return parseDateValue("If-Unmodified-Since", v) })
}

// SetIfUnmodifiedSince encodes and stores the If-Unmodified-Since header.
func (h *Headers) SetIfUnmodifiedSince(t time.Time) error {
	return setTyped(h, "If-Unmodified-Since", t, encodeDateValue)
}

// RetryAfter is either a duration (delay-seconds) or an absolute date.
type RetryAfter struct {
	Delay   time.Duration
	At      time.Time
	IsDelay bool
}

// RetryAfter returns the parsed Retry-After header.
func (h *Headers) RetryAfter() (RetryAfter, error) {
	return typed(h, "Retry-After", func(v []string) (RetryAfter, error) {
		if len(v) == 0 {
			return RetryAfter{}, errFn("Retry-After", "header absent")
		}
		raw := v[0]
		if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
			return RetryAfter{Delay: time.Duration(secs) * time.Second, IsDelay: true}, nil
		}
		t, err := parseHTTPDate(raw)
		if err != nil {
			return RetryAfter{}, errFn("Retry-After", "not delay-seconds nor HTTP-date: "+raw)
		}
		return RetryAfter{At: t}, nil
	})
}

// SetRetryAfter encodes and stores the Retry-After header.
func (h *Headers) SetRetryAfter(r RetryAfter) error {
	return setTyped(h, "Retry-After", r, func(r RetryAfter) []string {
		if r.IsDelay {
			return []string{strconv.Itoa(int(r.Delay / time.Second))}
		}
		return []string{formatHTTPDate(r.At)}
	})
}
