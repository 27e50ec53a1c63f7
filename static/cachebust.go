package static

import (
	"path"
	"strings"
)

// StripCacheBust removes a "@<hash>" cache-busting tag inserted before the
// file extension (e.g. "app@a1b2c3d4.js" -> "app.js"), returning the
// original name unchanged if it carries no such tag. The hash segment is
// treated as opaque; callers that need to validate it against a known ETag
// do so separately.
func StripCacheBust(name string) (original string, hash string, busted bool) {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	at := strings.LastIndexByte(base, '@')
	if at < 0 {
		return name, "", false
	}
	hash = base[at+1:]
	if hash == "" || strings.ContainsAny(hash, "/\\") {
		return name, "", false
	}
	return base[:at] + ext, hash, true
}

// WithCacheBust inserts a cache-busting hash tag before name's extension.
func WithCacheBust(name, hash string) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + "@" + hash + ext
}
