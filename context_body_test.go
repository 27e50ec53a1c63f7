// File: context_body_test.go
package relic

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCtx_BodyReadsRawBytes(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/p", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	c := newCtx(httptest.NewRecorder(), req, nil)

	b := c.Body(0)
	data, err := b.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Fatalf("Read = %q", data)
	}
	typ, ok := b.Type()
	if !ok || typ.MIME != "application/json" {
		t.Fatalf("Type = %+v, ok=%v", typ, ok)
	}
}

func TestCtx_BodyEnforcesMaxLength(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/p", strings.NewReader(strings.Repeat("a", 200)))
	c := newCtx(httptest.NewRecorder(), req, nil)

	b := c.Body(100)
	if _, err := b.Read(); err == nil {
		t.Fatal("want PayloadTooLarge error, got nil")
	}
}

func TestCtx_BodySecondReadFails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/p", strings.NewReader("hello"))
	c := newCtx(httptest.NewRecorder(), req, nil)

	b := c.Body(0)
	if _, err := b.Read(); err != nil {
		t.Fatalf("first Read: %v", err)
	}
	if _, err := b.Read(); err == nil {
		t.Fatal("second Read: want AlreadyConsumed error, got nil")
	}
}

func TestCtx_BodySniffsWithoutContentType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/p", strings.NewReader("<html></html>"))
	c := newCtx(httptest.NewRecorder(), req, nil)

	b := c.Body(0)
	if _, err := b.Read(); err != nil {
		t.Fatalf("Read: %v", err)
	}
	typ, ok := b.Type()
	if !ok || typ.MIME != "text/html" {
		t.Fatalf("Type = %+v, ok=%v", typ, ok)
	}
}
