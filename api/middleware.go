package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// GzipRequestMiddleware transparently decompresses gzip-encoded request
// bodies, so bulk clients can compress large card batches. Invalid gzip
// payloads are rejected with a 400.
func GzipRequestMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.Contains(strings.ToLower(req.Header.Get(echo.HeaderContentEncoding)), "gzip") {
				return next(c)
			}
			body := req.Body
			gr, err := gzip.NewReader(body)
			if err != nil {
				_ = body.Close()
				return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
			}
			req.Body = &gzipBody{reader: gr, raw: body}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)
			return next(c)
		}
	}
}

type gzipBody struct {
	reader *gzip.Reader
	raw    io.Closer
}

func (g *gzipBody) Read(p []byte) (int, error) { return g.reader.Read(p) }

func (g *gzipBody) Close() error {
	err := g.reader.Close()
	if cerr := g.raw.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
