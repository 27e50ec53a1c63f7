package relic

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/relic-http/relic/header"
	"github.com/relic-http/relic/static"
)

// newStaticHandler returns a Ctx-aware handler closing over fsys, serving
// the file at rest (a path relative to the mount point) with conditional
// requests, Range support, and cache-busted filename rewriting.
func newStaticHandler(fsys http.FileSystem) func(c *Ctx, rest string) error {
	return func(c *Ctx, rest string) error {
		return serveStatic(c, fsys, rest)
	}
}

// hasHiddenSegment reports whether any path element of the already-Cleaned
// p begins with ".". Clean has already collapsed "." and root-escaping
// ".." segments out of an absolute path, so what's left is a genuine
// dotfile/dotdir name (".git", ".env", etc.), never a traversal artifact.
func hasHiddenSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg != "" && strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// staticRoot returns the real, symlink-resolved root directory backing
// fsys, when fsys is the stdlib's http.Dir — the only http.FileSystem
// implementation this helper knows how to contain. Custom FileSystems
// opt out of the symlink-escape check (there's no portable way to map an
// arbitrary http.FileSystem back to a real filesystem path).
func staticRoot(fsys http.FileSystem) (string, bool) {
	dir, ok := fsys.(http.Dir)
	if !ok {
		return "", false
	}
	root, err := filepath.EvalSymlinks(string(dir))
	if err != nil {
		return "", false
	}
	return root, true
}

// escapesRoot reports whether f's real, symlink-resolved path falls
// outside root. Only *os.File (what http.Dir.Open returns) carries a
// usable Name(); anything else is reported as escaping, the safe default.
func escapesRoot(f http.File, root string) bool {
	osf, ok := f.(*os.File)
	if !ok {
		return true
	}
	real, err := filepath.EvalSymlinks(osf.Name())
	if err != nil {
		return true
	}
	rel, err := filepath.Rel(root, real)
	if err != nil {
		return true
	}
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func serveStatic(c *Ctx, fsys http.FileSystem, rest string) error {
	if rest == "" {
		rest = "index.html"
	}
	openName := path.Clean("/" + rest)

	dir, base := path.Split(openName)
	original, hash, busted := static.StripCacheBust(base)
	if busted {
		openName = path.Join(dir, original)
	}

	if hasHiddenSegment(openName) {
		return NewError(KindPathNotFound, "hidden path segment")
	}

	root, checkRoot := staticRoot(fsys)

	f, err := fsys.Open(openName)
	if err != nil {
		return NewError(KindPathNotFound, err.Error())
	}
	defer func() { _ = f.Close() }()
	if checkRoot && escapesRoot(f, root) {
		return NewError(KindPathNotFound, "path escapes root")
	}

	fi, err := f.Stat()
	if err != nil {
		return NewError(KindPathNotFound, err.Error())
	}
	if fi.IsDir() {
		_ = f.Close()
		f, err = fsys.Open(path.Join(openName, "index.html"))
		if err != nil {
			return NewError(KindPathNotFound, "no index.html in directory")
		}
		defer func() { _ = f.Close() }()
		if checkRoot && escapesRoot(f, root) {
			return NewError(KindPathNotFound, "path escapes root")
		}
		fi, err = f.Stat()
		if err != nil {
			return NewError(KindPathNotFound, err.Error())
		}
	}

	etagVal := strings.Trim(static.ComputeETag(fi.ModTime(), fi.Size()), `"`)
	if busted && hash != etagVal {
		return NewError(KindPathNotFound, "stale cache-busted asset")
	}

	respH := c.Header()
	reqH := c.RequestHeader()
	modTime := fi.ModTime()

	_ = respH.Set("Accept-Ranges", "bytes")
	_ = respH.SetETag(header.ETag{Value: etagVal})
	_ = respH.SetLastModified(modTime)
	if busted {
		_ = respH.Set("Cache-Control", "public, max-age=31536000, immutable")
	}

	if notModified(reqH, etagVal, modTime) {
		c.Status(http.StatusNotModified)
		return nil
	}

	ct := mime.TypeByExtension(path.Ext(openName))
	if ct == "" {
		ct = "application/octet-stream"
	}
	_ = respH.Set("Content-Type", ct)

	size := fi.Size()

	if reqH.Has("Range") && rangePreconditionOK(reqH, etagVal, modTime) {
		spec, err := reqH.Range()
		if err != nil {
			return err
		}
		return serveRanges(c, f, size, ct, spec)
	}

	c.Status(http.StatusOK)
	_ = respH.SetContentLength(size)
	if c.Request().Method == http.MethodHead {
		return nil
	}
	_, err = io.Copy(c, f)
	return err
}

// notModified evaluates conditional GET precedence per RFC 7232: a
// syntactically present If-None-Match always takes priority over
// If-Modified-Since, even when it fails to parse as a valid header.
func notModified(reqH *header.Headers, etagVal string, modTime time.Time) bool {
	if reqH.Has("If-None-Match") {
		inm, err := reqH.IfNoneMatch()
		if err != nil {
			return false
		}
		return inm.MatchesWeak(header.ETag{Value: etagVal})
	}
	if reqH.Has("If-Modified-Since") {
		ims, err := reqH.IfModifiedSince()
		if err != nil {
			return false
		}
		return !modTime.Truncate(time.Second).After(ims)
	}
	return false
}

// rangePreconditionOK reports whether a Range request should be honored as
// partial content. With no If-Range header present, Range is always honored.
func rangePreconditionOK(reqH *header.Headers, etagVal string, modTime time.Time) bool {
	if !reqH.Has("If-Range") {
		return true
	}
	ir, err := reqH.IfRange()
	if err != nil {
		return false
	}
	if ir.HasETag {
		return !ir.ETag.Weak && ir.ETag.Value == etagVal
	}
	if ir.HasDate {
		parsed, err := http.ParseTime(ir.Date)
		if err != nil {
			return false
		}
		return !modTime.Truncate(time.Second).After(parsed)
	}
	return false
}

func serveRanges(c *Ctx, f http.File, size int64, ct string, spec header.RangeSpec) error {
	respH := c.Header()
	head := c.Request().Method == http.MethodHead

	type resolved struct{ start, end int64 }
	var ranges []resolved
	for _, r := range spec.Ranges {
		start, end, ok := r.Resolve(size)
		if !ok {
			continue
		}
		ranges = append(ranges, resolved{start, end})
	}
	if len(ranges) == 0 {
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		_ = respH.SetContentRange(header.ContentRange{Unit: "bytes", Unsatisfied: true, Total: size})
		return nil
	}

	if len(ranges) == 1 {
		r := ranges[0]
		c.Status(http.StatusPartialContent)
		_ = respH.SetContentRange(header.ContentRange{Unit: "bytes", Start: r.start, End: r.end, Total: size})
		_ = respH.SetContentLength(r.end - r.start + 1)
		if head {
			return nil
		}
		if _, err := f.Seek(r.start, io.SeekStart); err != nil {
			return err
		}
		_, err := io.CopyN(c, f, r.end-r.start+1)
		return err
	}

	// Multipart response: build the writer first so its auto-generated
	// boundary is known before the Content-Type header is flushed on the
	// first write — Ctx defers WriteHeader until then.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	_ = respH.Set("Content-Type", "multipart/byteranges; boundary="+mw.Boundary())
	c.Status(http.StatusPartialContent)

	if head {
		_ = pw.Close()
		_ = pr.Close()
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		for _, r := range ranges {
			part, err := mw.CreatePart(textproto.MIMEHeader{
				"Content-Type":  {ct},
				"Content-Range": {fmt.Sprintf("bytes %d-%d/%d", r.start, r.end, size)},
			})
			if err != nil {
				errCh <- err
				_ = pw.Close()
				return
			}
			if _, err := f.Seek(r.start, io.SeekStart); err != nil {
				errCh <- err
				_ = pw.Close()
				return
			}
			if _, err := io.CopyN(part, f, r.end-r.start+1); err != nil {
				errCh <- err
				_ = pw.Close()
				return
			}
		}
		errCh <- mw.Close()
		_ = pw.Close()
	}()

	if _, err := io.Copy(c, pr); err != nil {
		return err
	}
	return <-errCh
}
