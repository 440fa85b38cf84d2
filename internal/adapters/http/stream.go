package http

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

// stream writes every value received from updates as a server-sent event
// until the client goes away or updates is closed.
func stream[T any](c echo.Context, updates <-chan T) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	enc := json.NewEncoder(res)
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-updates:
			if !ok {
				return nil
			}
			if _, err := res.Write([]byte("data: ")); err != nil {
				return nil
			}
			if err := enc.Encode(v); err != nil {
				return nil
			}
			if _, err := res.Write([]byte("\n")); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
