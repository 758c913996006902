package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"kanban-flow/domain"
	"kanban-flow/storage"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 25 * time.Second

// streamEvents serves one SSE subscriber: an INITIAL_DATA snapshot first,
// then live events in emission order. The snapshot honors an optional
// ?project= filter; live events are not filtered, so clients watching one
// project simply ignore cards from others.
func streamEvents(svc BoardService, broker Subscriber) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}
		ctx := c.Request().Context()

		// Subscribe before reading the snapshot so no mutation falls between
		// the two. A mutation racing the connect may appear in both; that is
		// the documented at-least-once contract.
		ch, cancel := broker.Subscribe()
		defer cancel()

		cards, err := svc.List(ctx, storage.ListFilter{Project: c.QueryParam("project")})
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		snapshot, err := domain.EncodeEvent(domain.InitialData{Cards: cards})
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		if err := writeSSE(c, snapshot); err != nil {
			return nil
		}
		flusher.Flush()

		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := c.Response().Write([]byte(": ping\n\n")); err != nil {
					return nil
				}
				flusher.Flush()
			case msg, ok := <-ch:
				if !ok {
					return nil
				}
				if err := writeSSE(c, msg); err != nil {
					return nil
				}
				flusher.Flush()
			}
		}
	}
}

func writeSSE(c echo.Context, data []byte) error {
	if _, err := c.Response().Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := c.Response().Write(data); err != nil {
		return err
	}
	_, err := c.Response().Write([]byte("\n\n"))
	return err
}
