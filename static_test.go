package relic

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestStatic_RejectsHiddenSegments(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("secret"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewRouter()
	r.Static("/assets", http.Dir(dir))

	for _, path := range []string{"/assets/.env", "/assets/.git/config"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, mustReq(t, http.MethodGet, "http://example"+path, nil))
		ok(t, rr.Code, http.StatusNotFound)
	}
}

func TestStatic_RejectsSymlinkEscapingRoot(t *testing.T) {
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(secret, []byte("top secret"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	root := t.TempDir()
	link := filepath.Join(root, "escape.txt")
	if err := os.Symlink(secret, link); err != nil {
		t.Skipf("symlinks unsupported in this environment: %v", err)
	}

	r := NewRouter()
	r.Static("/assets", http.Dir(root))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, mustReq(t, http.MethodGet, "http://example/assets/escape.txt", nil))
	ok(t, rr.Code, http.StatusNotFound)
}

func TestStatic_SymlinkWithinRootStillServed(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "real.txt"), []byte("hi"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	link := filepath.Join(root, "alias.txt")
	if err := os.Symlink(filepath.Join(root, "real.txt"), link); err != nil {
		t.Skipf("symlinks unsupported in this environment: %v", err)
	}

	r := NewRouter()
	r.Static("/assets", http.Dir(root))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, mustReq(t, http.MethodGet, "http://example/assets/alias.txt", nil))
	ok(t, rr.Code, http.StatusOK)
	ok(t, rr.Body.String(), "hi")
}

func TestStatic_InvalidRangeHeaderIsInvalidHeader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("0123456789"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewRouter()
	r.Static("/assets", http.Dir(dir))
	r.SetSanitizeErrorMessages(false)

	req := mustReq(t, http.MethodGet, "http://example/assets/f.txt", nil)
	req.Header.Set("Range", "not-a-range")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	ok(t, rr.Code, http.StatusBadRequest)
	has(t, rr.Body.String(), "Range")
}

func TestStatic_OutOfBoundsRangeIs416(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("0123456789"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewRouter()
	r.Static("/assets", http.Dir(dir))

	req := mustReq(t, http.MethodGet, "http://example/assets/f.txt", nil)
	req.Header.Set("Range", "bytes=1000-2000")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	ok(t, rr.Code, http.StatusRequestedRangeNotSatisfiable)
}
