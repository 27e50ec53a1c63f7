package header

import (
	"net"
	"strings"
)

// Host is a parsed RFC 3986 authority: host[:port]. It is parsed as an
// authority, not a URI — no scheme, path, or query is permitted.
type Host struct {
	Hostname string
	Port     string // "" if absent
}

func parseHostValue(raw string) (Host, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Host{}, errFn("Host", "empty authority")
	}
	if strings.ContainsAny(raw, "/?#") {
		return Host{}, errFn("Host", "authority must not contain scheme/path/query: "+raw)
	}
	if host, port, err := net.SplitHostPort(raw); err == nil {
		return Host{Hostname: host, Port: port}, nil
	}
	// No port: SplitHostPort fails for bracket-less hosts without a colon.
	// A bare IPv6 literal must still be bracketed per RFC 3986; anything
	// else with no ':' is a plain hostname.
	if strings.Count(raw, ":") > 0 && !strings.HasPrefix(raw, "[") {
		return Host{}, errFn("Host", "malformed authority: "+raw)
	}
	h := strings.TrimPrefix(strings.TrimSuffix(raw, "]"), "[")
	return Host{Hostname: h}, nil
}

// Host returns the parsed Host header.
func (h *Headers) Host() (Host, error) {
	return typed(h, "Host", func(v []string) (Host, error) {
		if len(v) == 0 {
			return Host{}, errFn("Host", "header absent")
		}
		return parseHostValue(v[0])
	})
}

// SetHost encodes and stores the Host header.
func (h *Headers) SetHost(host Host) error {
	return setTyped(h, "Host", host, func(host Host) []string {
		if host.Port == "" {
			return []string{host.Hostname}
		}
		return []string{net.JoinHostPort(host.Hostname, host.Port)}
	})
}

// ForwardedElement is one comma-separated element of the Forwarded
// header (RFC 7239): for=, by=, host=, proto=.
type ForwardedElement struct {
	For, By, Host, Proto string
}

// Forwarded returns the parsed Forwarded header elements, in order.
func (h *Headers) Forwarded() ([]ForwardedElement, error) {
	return typed(h, "Forwarded", func(v []string) ([]ForwardedElement, error) {
		var out []ForwardedElement
		for _, elem := range splitCommaList(v) {
			var fe ForwardedElement
			for _, pair := range strings.Split(elem, ";") {
				k, val, ok := strings.Cut(pair, "=")
				if !ok {
					continue
				}
				k = strings.ToLower(strings.TrimSpace(k))
				val = strings.Trim(strings.TrimSpace(val), `"`)
				switch k {
				case "for":
					fe.For = val
				case "by":
					fe.By = val
				case "host":
					fe.Host = val
				case "proto":
					fe.Proto = val
				}
			}
			out = append(out, fe)
		}
		return out, nil
	})
}

// SetForwarded encodes and stores the Forwarded header.
func (h *Headers) SetForwarded(elems []ForwardedElement) error {
	return setTyped(h, "Forwarded", elems, func(elems []ForwardedElement) []string {
		parts := make([]string, 0, len(elems))
		for _, fe := range elems {
			var kv []string
			if fe.For != "" {
				kv = append(kv, "for="+fe.For)
			}
			if fe.By != "" {
				kv = append(kv, "by="+fe.By)
			}
			if fe.Host != "" {
				kv = append(kv, "host="+fe.Host)
			}
			if fe.Proto != "" {
				kv = append(kv, "proto="+fe.Proto)
			}
			parts = append(parts, strings.Join(kv, ";"))
		}
		return joinCommaList(parts)
	})
}

// XForwardedFor returns the ordered client-hop chain.
func (h *Headers) XForwardedFor() ([]string, error) {
	return typed(h, "X-Forwarded-For", func(v []string) ([]string, error) { return splitCommaList(v), nil })
}

// SetXForwardedFor encodes and stores the X-Forwarded-For header.
func (h *Headers) SetXForwardedFor(chain []string) error {
	return setTyped(h, "X-Forwarded-For", chain, joinCommaList)
}

// Via returns the ordered list of intermediate protocol/recipient pairs.
func (h *Headers) Via() ([]string, error) {
	return typed(h, "Via", func(v []string) ([]string, error) { return splitCommaList(v), nil })
}

// SetVia encodes and stores the Via header.
func (h *Headers) SetVia(hops []string) error {
	return setTyped(h, "Via", hops, joinCommaList)
}

// Referer returns the raw Referer value (kept as a string — a referring
// URL is not restricted to this server's URI grammar).
func (h *Headers) Referer() (string, error) {
	return typed(h, "Referer", func(v []string) (string, error) {
		if len(v) == 0 {
			return "", errFn("Referer", "header absent")
		}
		return v[0], nil
	})
}

// SetReferer encodes and stores the Referer header.
func (h *Headers) SetReferer(ref string) error {
	return setTyped(h, "Referer", ref, func(s string) []string { return []string{s} })
}

// Origin returns the raw Origin value.
func (h *Headers) Origin() (string, error) {
	return typed(h, "Origin", func(v []string) (string, error) { return firstOrEmpty(v), nil })
}

// SetOrigin encodes and stores the Origin header.
func (h *Headers) SetOrigin(origin string) error {
	return setTyped(h, "Origin", origin, func(s string) []string { return []string{s} })
}

// From returns the raw From header (an email address per RFC 7231): the
// first raw value, unvalidated.
func (h *Headers) From() (string, error) {
	return typed(h, "From", func(v []string) (string, error) {
		if len(v) == 0 {
			return "", errFn("From", "header absent")
		}
		return v[0], nil
	})
}

// SetFrom encodes and stores the From header.
func (h *Headers) SetFrom(addr string) error {
	return setTyped(h, "From", addr, func(s string) []string { return []string{s} })
}

// Location returns the raw Location value.
func (h *Headers) Location() (string, error) {
	return typed(h, "Location", func(v []string) (string, error) {
		if len(v) == 0 {
			return "", errFn("Location", "header absent")
		}
		return v[0], nil
	})
}

// SetLocation encodes and stores the Location header.
func (h *Headers) SetLocation(loc string) error {
	return setTyped(h, "Location", loc, func(s string) []string { return []string{s} })
}

// Server returns the raw Server header.
func (h *Headers) Server() (string, error) {
	return typed(h, "Server", func(v []string) (string, error) { return firstOrEmpty(v), nil })
}

// SetServer encodes and stores the Server header.
func (h *Headers) SetServer(s string) error {
	return setTyped(h, "Server", s, func(s string) []string { return []string{s} })
}

// UserAgent returns the raw User-Agent header.
func (h *Headers) UserAgent() (string, error) {
	return typed(h, "User-Agent", func(v []string) (string, error) { return firstOrEmpty(v), nil })
}

// SetUserAgent encodes and stores the User-Agent header.
func (h *Headers) SetUserAgent(ua string) error {
	return setTyped(h, "User-Agent", ua, func(s string) []string { return []string{s} })
}

// XPoweredBy returns the raw X-Powered-By header.
func (h *Headers) XPoweredBy() (string, error) {
	return typed(h, "X-Powered-By", func(v []string) (string, error) { return firstOrEmpty(v), nil })
}

// SetXPoweredBy encodes and stores the X-Powered-By header.
func (h *Headers) SetXPoweredBy(by string) error {
	return setTyped(h, "X-Powered-By", by, func(s string) []string { return []string{s} })
}
