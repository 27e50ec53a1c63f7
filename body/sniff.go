package body

import (
	"bytes"
	"unicode/utf8"
)

// magicPrefix is one binary signature Sniff checks for, in order.
type magicPrefix struct {
	prefix []byte
	mime   string
}

var magicPrefixes = []magicPrefix{
	{[]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
	{[]byte{0xFF, 0xD8, 0xFF}, "image/jpeg"},
	{[]byte("GIF8"), "image/gif"},
	{[]byte("%PDF-"), "application/pdf"},
}

// Sniff infers a body's MIME type from its bytes, per the magic-byte and
// text-prefix heuristics Relic uses in place of net/http.DetectContentType
// (which returns a broader, browser-oriented type set than this engine
// needs). Detection is skipped entirely by callers that pass an explicit
// Type to the FromText/FromBytes constructors.
func Sniff(data []byte) Type {
	for _, m := range magicPrefixes {
		if bytes.HasPrefix(data, m.prefix) {
			return Type{MIME: m.mime}
		}
	}
	if mime, ok := sniffText(data); ok {
		return Type{MIME: mime, Encoding: "utf-8"}
	}
	return Type{MIME: "application/octet-stream"}
}

func sniffText(data []byte) (string, bool) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return "text/plain", true
	}
	if !utf8.Valid(data) {
		return "", false
	}
	for _, c := range data {
		if (c < 0x20 && c != '\t' && c != '\n' && c != '\r' && c != '\f') || c == 0x7F {
			return "", false
		}
	}

	switch {
	case hasFoldedPrefix(trimmed, "<!doctype html"), hasFoldedPrefix(trimmed, "<html"):
		return "text/html", true
	case bytes.HasPrefix(trimmed, []byte("<?xml")):
		return "application/xml", true
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		return "application/json", true
	}

	if looksLikeJSONScalar(trimmed) {
		return "application/json", true
	}

	return "text/plain", true
}

func hasFoldedPrefix(data []byte, prefix string) bool {
	if len(data) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		c := data[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != prefix[i] {
			return false
		}
	}
	return true
}

// looksLikeJSONScalar reports whether trimmed is a bare JSON string,
// number, bool, or null literal, for payloads that are valid JSON without
// starting with '{' or '['.
func looksLikeJSONScalar(trimmed []byte) bool {
	switch {
	case trimmed[0] == '"':
		return bytes.HasSuffix(bytes.TrimRight(trimmed, " \t\r\n"), []byte(`"`)) && len(trimmed) >= 2
	case bytes.Equal(bytes.TrimRight(trimmed, " \t\r\n"), []byte("true")),
		bytes.Equal(bytes.TrimRight(trimmed, " \t\r\n"), []byte("false")),
		bytes.Equal(bytes.TrimRight(trimmed, " \t\r\n"), []byte("null")):
		return true
	case trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9'):
		return isJSONNumber(bytes.TrimRight(trimmed, " \t\r\n"))
	default:
		return false
	}
}

func isJSONNumber(tok []byte) bool {
	if len(tok) == 0 {
		return false
	}
	i := 0
	if tok[i] == '-' {
		i++
	}
	if i >= len(tok) {
		return false
	}
	seenDigit := false
	for ; i < len(tok); i++ {
		c := tok[i]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-':
			// allowed within a number's exponent/fraction; not re-validated
			// position-by-position since malformed tokens simply fall back
			// to text/plain via the caller's default.
		default:
			return false
		}
	}
	return seenDigit
}
