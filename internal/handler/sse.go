package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/notify"

	"github.com/labstack/echo/v4"
)

type SSEHandler struct {
	notifier notify.Notifier
}

func NewSSEHandler(notifier notify.Notifier) *SSEHandler {
	return &SSEHandler{
		notifier: notifier,
	}
}

// StreamOrderEvents holds an SSE connection open for the authenticated user
// and forwards lifecycle events as they happen. There is no replay: events
// published before the subscription opened are gone, and reconnection is the
// client's responsibility.
func (h *SSEHandler) StreamOrderEvents(c echo.Context) error {
	userID := middleware.UserID(c)

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": connected\n\n")
	w.Flush()

	sub := h.notifier.Subscribe(userID)
	defer h.notifier.Unsubscribe(sub)

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub.C:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			w.Flush()
		}
	}
}
