package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campuspass-api/pkg/response"
)

const (
	eventSnapshot = "snapshot"
	eventPing     = "ping"

	defaultHeartbeat = 25 * time.Second
)

type subscribeFunc[T any] func(ctx context.Context, onChange func([]T)) (func(), error)

// streamSnapshots relays subscription deliveries as Server-Sent Events until the client goes
// away. A slow client only ever sees the latest snapshot.
func streamSnapshots[T any](c *gin.Context, subscribe subscribeFunc[T], heartbeat time.Duration) {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	latest := make(chan []T, 1)
	unsubscribe, err := subscribe(ctx, func(items []T) {
		select {
		case <-latest:
		default:
		}
		latest <- items
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case items := <-latest:
			c.SSEvent(eventSnapshot, items)
			return true
		case <-ticker.C:
			c.SSEvent(eventPing, time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
