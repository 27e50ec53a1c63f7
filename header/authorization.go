package header

import (
	"encoding/base64"
	"strings"
)

// Authorization is a parsed Authorization (or WWW-Authenticate challenge)
// credential. Scheme is normalized to its canonical case ("Basic",
// "Bearer", "Digest") when recognized; otherwise it is kept verbatim.
type Authorization struct {
	Scheme string

	// Basic
	Username, Password string

	// Bearer
	Token string

	// Digest (and any other scheme's auth-params)
	Params map[string]string
}

// String renders a debug-safe representation: Basic passwords and Bearer
// tokens are masked, and every other scheme (Digest included) is rendered
// as its scheme name followed by "[masked]", without its params.
func (a Authorization) String() string {
	switch a.Scheme {
	case "Basic":
		return "Basic " + a.Username + ":***"
	case "Bearer":
		return "Bearer ***"
	default:
		return a.Scheme + " [masked]"
	}
}

func parseAuthorization(name string, values []string) (Authorization, error) {
	if len(values) == 0 {
		return Authorization{}, errFn(name, "header absent")
	}
	raw := values[0]
	scheme, rest, ok := strings.Cut(raw, " ")
	if !ok {
		return Authorization{Scheme: raw}, nil
	}
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(scheme) {
	case "basic":
		dec, err := base64.StdEncoding.DecodeString(rest)
		if err != nil {
			return Authorization{}, errFn(name, "invalid base64 in Basic credentials")
		}
		user, pass, ok := strings.Cut(string(dec), ":")
		if !ok {
			return Authorization{}, errFn(name, "Basic credentials missing ':'")
		}
		return Authorization{Scheme: "Basic", Username: user, Password: pass}, nil
	case "bearer":
		return Authorization{Scheme: "Bearer", Token: rest}, nil
	case "digest":
		return Authorization{Scheme: "Digest", Params: parseAuthParams(rest)}, nil
	default:
		return Authorization{Scheme: scheme, Params: parseAuthParams(rest)}, nil
	}
}

// parseAuthParams parses a comma-separated key=value (optionally quoted)
// auth-param list, as used by Digest and WWW-Authenticate challenges.
func parseAuthParams(s string) map[string]string {
	out := map[string]string{}
	for _, part := range splitAuthParamList(s) {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		v = strings.Trim(v, `"`)
		out[k] = v
	}
	return out
}

// splitAuthParamList splits on commas that are not inside a quoted string.
func splitAuthParamList(s string) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range s {
		switch r {
		case '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case ',':
			if inQuotes {
				cur.WriteRune(r)
			} else {
				if t := strings.TrimSpace(cur.String()); t != "" {
					out = append(out, t)
				}
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if t := strings.TrimSpace(cur.String()); t != "" {
		out = append(out, t)
	}
	return out
}

func encodeAuthorization(a Authorization) []string {
	switch a.Scheme {
	case "Basic":
		enc := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
		return []string{"Basic " + enc}
	case "Bearer":
		return []string{"Bearer " + a.Token}
	default:
		if len(a.Params) == 0 {
			return []string{a.Scheme}
		}
		parts := make([]string, 0, len(a.Params))
		for k, v := range a.Params {
			parts = append(parts, k+`="`+v+`"`)
		}
		return []string{a.Scheme + " " + strings.Join(parts, ", ")}
	}
}

// Authorization returns the parsed Authorization header.
func (h *Headers) Authorization() (Authorization, error) {
	return typed(h, "Authorization", func(v []string) (Authorization, error) {
		return parseAuthorization("Authorization", v)
	})
}

// SetAuthorization encodes and stores the Authorization header.
func (h *Headers) SetAuthorization(a Authorization) error {
	return setTyped(h, "Authorization", a, encodeAuthorization)
}

// WWWAuthenticate returns the parsed WWW-Authenticate challenge.
func (h *Headers) WWWAuthenticate() (Authorization, error) {
	return typed(h, "WWW-Authenticate", func(v []string) (Authorization, error) {
		return parseAuthorization("WWW-Authenticate", v)
	})
}

// SetWWWAuthenticate encodes and stores the WWW-Authenticate header.
func (h *Headers) SetWWWAuthenticate(a Authorization) error {
	return setTyped(h, "WWW-Authenticate", a, encodeAuthorization)
}
