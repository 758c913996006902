package api

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func gzipPayload(t *testing.T, body string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(body)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return &buf
}

func newGzipEcho() *echo.Echo {
	e := echo.New()
	e.Use(GzipRequestMiddleware())
	e.POST("/echo", func(c echo.Context) error {
		data, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, string(data))
	})
	return e
}

func TestGzipRequestMiddlewareDecompresses(t *testing.T) {
	e := newGzipEcho()
	req := httptest.NewRequest(http.MethodPost, "/echo", gzipPayload(t, `{"title":"T"}`))
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != `{"title":"T"}` {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestGzipRequestMiddlewareRejectsInvalidGzip(t *testing.T) {
	e := newGzipEcho()
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("not gzip"))
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGzipRequestMiddlewarePassthrough(t *testing.T) {
	e := newGzipEcho()
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("plain"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "plain" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}
