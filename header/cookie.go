package header

import (
	"net/http"
	"strings"
)

// Cookie is one name=value pair from a request's Cookie header.
type Cookie struct {
	Name  string
	Value string
}

// Cookies returns the parsed Cookie header as an ordered list of pairs.
func (h *Headers) Cookies() ([]Cookie, error) {
	return typed(h, "Cookie", func(v []string) ([]Cookie, error) {
		var out []Cookie
		for _, line := range v {
			for _, part := range strings.Split(line, ";") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				name, val, ok := strings.Cut(part, "=")
				if !ok {
					continue
				}
				out = append(out, Cookie{Name: strings.TrimSpace(name), Value: val})
			}
		}
		return out, nil
	})
}

// SetCookies encodes and stores the Cookie header (request-side use).
func (h *Headers) SetCookies(cookies []Cookie) error {
	return setTyped(h, "Cookie", cookies, func(cookies []Cookie) []string {
		if len(cookies) == 0 {
			return nil
		}
		parts := make([]string, len(cookies))
		for i, c := range cookies {
			parts[i] = c.Name + "=" + c.Value
		}
		return []string{strings.Join(parts, "; ")}
	})
}

// SetCookieHeaders returns the parsed Set-Cookie headers (response-side),
// delegating the attribute grammar to net/http's well-tested parser.
func (h *Headers) SetCookieHeaders() ([]*http.Cookie, error) {
	return typed(h, "Set-Cookie", func(v []string) ([]*http.Cookie, error) {
		hdr := http.Header{"Set-Cookie": v}
		req := &http.Response{Header: hdr}
		return req.Cookies(), nil
	})
}

// AddSetCookie appends a Set-Cookie header for c, using net/http's
// well-tested serializer, and invalidates the cached parse.
func (h *Headers) AddSetCookie(c *http.Cookie) error {
	v := c.String()
	if v == "" {
		return errFn("Set-Cookie", "cookie serialized to empty string")
	}
	return h.Add("Set-Cookie", v)
}
