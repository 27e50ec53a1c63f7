// Package static holds the domain-agnostic pieces of Relic's static file
// engine: ETag computation and cache-busting filename rewriting. Neither
// file depends on Ctx or any router type, so the router-facing glue in the
// root package can import this package without a cycle.
package static

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// ComputeETag derives a strong ETag from a file's size and modification
// time, without reading its content — the same opacity/cost tradeoff most
// static file servers make (nginx and Apache both hash inode+size+mtime).
func ComputeETag(modTime time.Time, size int64) string {
	h := xxhash.New()
	_, _ = h.Write(strconv.AppendInt(nil, size, 10))
	_, _ = h.Write([]byte{'-'})
	_, _ = h.Write(strconv.AppendInt(nil, modTime.UnixNano(), 10))
	return fmt.Sprintf(`"%x"`, h.Sum64())
}
