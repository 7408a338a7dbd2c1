package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// stream pushes each completed run to the client as a server-sent event.
// Events carry the summary only; clients fetch results by ID.
func (h *Handler) stream(c *gin.Context) {
	if h.subscriber == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "streaming disabled"})
		return
	}

	id, runs := h.subscriber.Subscribe()
	defer h.subscriber.Unsubscribe(id)
	h.metrics.StreamSubscribers.Inc()
	defer h.metrics.StreamSubscribers.Dec()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("ready", gin.H{"subscriber_id": id})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case run, ok := <-runs:
			if !ok {
				return false
			}
			event := *run
			event.Results = nil
			c.SSEvent("scenario", event)
			return true
		}
	})
}
