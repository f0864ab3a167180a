package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func TestRequestLogger_LogsRequest(t *testing.T) {
	buf := captureLogs(t)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(nil))
	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	output := buf.String()
	if output == "" {
		t.Fatal("expected log output, got empty string")
	}

	expectedFields := []string{
		"method=GET",
		"path=/test",
		"status=200",
		"remote_addr=",
		"duration_ms=",
		"request_id=",
	}
	for _, field := range expectedFields {
		if !strings.Contains(output, field) {
			t.Errorf("expected log to contain %q, got: %s", field, output)
		}
	}
	if strings.Contains(output, "country=") {
		t.Errorf("expected no country without a GeoIP database, got: %s", output)
	}
}

func TestRequestLogger_ParsesUserAgent(t *testing.T) {
	buf := captureLogs(t)

	r := chi.NewRouter()
	r.Use(requestLogger(nil))
	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.5414.74 Safari/537.36")
	r.ServeHTTP(httptest.NewRecorder(), req)

	output := buf.String()
	if !strings.Contains(output, "browser=Chrome") {
		t.Errorf("expected browser=Chrome, got: %s", output)
	}
	if !strings.Contains(output, "browser_version=109.0.5414.74") {
		t.Errorf("expected browser version, got: %s", output)
	}
}

func TestRequestLogger_LogsRange(t *testing.T) {
	buf := captureLogs(t)

	r := chi.NewRouter()
	r.Use(requestLogger(nil))
	r.Get("/proxy/video/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPartialContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/proxy/video/7", nil)
	req.Header.Set("Range", "bytes=100-")
	r.ServeHTTP(httptest.NewRecorder(), req)

	output := buf.String()
	if !strings.Contains(output, `range="bytes=100-"`) {
		t.Errorf("expected range in log, got: %s", output)
	}
	if !strings.Contains(output, "status=206") {
		t.Errorf("expected status=206, got: %s", output)
	}
}

func TestRequestLogger_SkipsHealthCheck(t *testing.T) {
	buf := captureLogs(t)

	r := chi.NewRouter()
	r.Use(requestLogger(nil))
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if output := buf.String(); output != "" {
		t.Errorf("expected no log output for /api/health, got: %s", output)
	}
}

func TestRequestLogger_LogsNon200Status(t *testing.T) {
	buf := captureLogs(t)

	r := chi.NewRouter()
	r.Use(requestLogger(nil))
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if output := buf.String(); !strings.Contains(output, "status=404") {
		t.Errorf("expected log to contain status=404, got: %s", output)
	}
}

func TestStatusRecorder_UnwrapsForFlush(t *testing.T) {
	rec := httptest.NewRecorder()
	recorder := &statusRecorder{ResponseWriter: rec, statusCode: http.StatusOK}

	if err := http.NewResponseController(recorder).Flush(); err != nil {
		t.Errorf("expected flush to reach the underlying writer, got %v", err)
	}
	if !rec.Flushed {
		t.Error("expected underlying recorder to be flushed")
	}
}
