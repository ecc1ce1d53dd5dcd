package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskflow-app/taskflow-sync/internal/notify"
)

// StreamHandler delivers in-app transient notices to UI clients over
// Server-Sent Events.
type StreamHandler struct {
	toasts *notify.ToastCenter
}

func NewStreamHandler(toasts *notify.ToastCenter) *StreamHandler {
	return &StreamHandler{toasts: toasts}
}

func (h *StreamHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/notifications/stream", h.Stream)
}

// Stream subscribes the client to the toast feed until it disconnects.
func (h *StreamHandler) Stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	toasts, cancel := h.toasts.Subscribe()
	defer cancel()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	ctx := c.Request.Context()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case toast, open := <-toasts:
			if !open {
				return
			}
			data, err := json.Marshal(toast)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: toast\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
