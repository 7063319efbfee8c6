package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mhasan91/teamhub/backend/internal/realtime"
)

// StreamHandler serves the live server-sent-events stream, one connection
// per authenticated user.
type StreamHandler struct {
	registry *realtime.Registry
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(registry *realtime.Registry) *StreamHandler {
	return &StreamHandler{registry: registry}
}

// RegisterStreamRoutes registers the stream route
func (h *StreamHandler) RegisterStreamRoutes(g *echo.Group) {
	g.GET("/stream", h.Stream)
}

// Stream registers the caller in the connection hub and pumps frames until
// the client goes away or a newer connection for the same user displaces
// this one.
func (h *StreamHandler) Stream(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	conn := h.registry.Register(currentUserID)

	// One keep-alive timer per connection, stopped exactly once.
	ticker := time.NewTicker(h.registry.KeepAliveInterval())
	defer ticker.Stop()

	for {
		select {
		case <-c.Request().Context().Done():
			h.registry.Disconnect(conn)
			return nil

		case <-conn.Done():
			// Displaced by a reconnect or shut down by the hub.
			return nil

		case event := <-conn.Events():
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				h.registry.Disconnect(conn)
				return nil
			}
			w.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				h.registry.Disconnect(conn)
				return nil
			}
			w.Flush()
		}
	}
}
