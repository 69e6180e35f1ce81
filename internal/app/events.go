package app

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /progress?session_id=...
//
// Streams the session's progress as server-sent events. Each published
// message becomes one "progress" event; when the session is closed a single
// "complete" event is sent and the stream ends. The listener is released
// when the client disconnects.
func (a *App) progressHandler(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	listener := a.progress.Register(sessionID)
	defer a.progress.Unregister(sessionID, listener)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := c.Request.Context()
	for {
		msg, open, err := listener.Receive(ctx)
		if err != nil {
			// client went away
			return
		}
		if !open {
			fmt.Fprint(c.Writer, "event: complete\ndata: done\n\n")
			flusher.Flush()
			return
		}
		if _, err := fmt.Fprintf(c.Writer, "event: progress\ndata: %s\n\n", msg); err != nil {
			return
		}
		flusher.Flush()
	}
}
