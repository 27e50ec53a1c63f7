package recover

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/relic-http/relic"
)

func TestNew(t *testing.T) {
	app := relic.NewRouter()
	app.Use(New())

	app.Get("/panic", func(c *relic.Ctx) error {
		panic("test panic")
	})
	app.Get("/ok", func(c *relic.Ctx) error {
		return c.Text(http.StatusOK, "ok")
	})

	t.Run("recovers from panic", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("passes through normal requests", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
			t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
		}
	})
}

func TestWithOptionsErrorHandler(t *testing.T) {
	var capturedErr any
	var capturedStack []byte

	app := relic.NewRouter()
	app.Use(WithOptions(Options{
		ErrorHandler: func(c *relic.Ctx, err any, stack []byte) error {
			capturedErr = err
			capturedStack = stack
			return c.Text(http.StatusServiceUnavailable, "custom error")
		},
	}))
	app.Get("/panic", func(c *relic.Ctx) error {
		panic("custom panic")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "custom error" {
		t.Fatalf("body = %q", rec.Body.String())
	}
	if capturedErr != "custom panic" {
		t.Fatalf("capturedErr = %v", capturedErr)
	}
	if len(capturedStack) == 0 {
		t.Fatal("expected non-empty stack")
	}
}

func TestWithOptionsDisablePrintStack(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	app := relic.NewRouter()
	app.Use(WithOptions(Options{DisablePrintStack: true, Logger: logger}))
	app.Get("/panic", func(c *relic.Ctx) error {
		panic("silent panic")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(buf.String(), "stack") {
		t.Fatal("expected no stack in log output")
	}
}

func TestWithOptionsCustomLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	app := relic.NewRouter()
	app.Use(WithOptions(Options{Logger: logger}))
	app.Get("/panic", func(c *relic.Ctx) error {
		panic("logged panic")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatal("expected panic to be logged")
	}
	if !strings.Contains(buf.String(), "logged panic") {
		t.Fatal("expected panic message in log")
	}
}

func TestWithOptionsStackSize(t *testing.T) {
	var capturedStack []byte

	app := relic.NewRouter()
	app.Use(WithOptions(Options{
		StackSize: 100,
		ErrorHandler: func(c *relic.Ctx, err any, stack []byte) error {
			capturedStack = stack
			return c.Text(http.StatusInternalServerError, "error")
		},
	}))
	app.Get("/panic", func(c *relic.Ctx) error {
		panic("stack test")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if len(capturedStack) > 100 {
		t.Fatalf("stack len = %d, want <= 100", len(capturedStack))
	}
}
