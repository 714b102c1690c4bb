package http

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/districtmap/internal/adapters/nats"
	"github.com/samirrijal/districtmap/internal/pkg/metrics"
)

// mapUpdatedMessage is pushed to browsers when a new map document exists.
type mapUpdatedMessage struct {
	Type       string   `json:"type"` // always "map.updated"
	Layers     []string `json:"layers"`
	RenderedAt string   `json:"rendered_at"`
}

// WebSocketHandler returns a handler that relays map.updated NATS events to
// the connected browser, which then re-fetches /v1/map. Client messages are
// read only to notice the connection closing.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		slog.Debug("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		sub, err := nc.Subscribe(natsadapter.SubjectMapUpdated, func(msg *nats.Msg) {
			u, err := natsadapter.DecodeMapUpdate(msg.Data)
			if err != nil {
				slog.Warn("ws: dropping malformed map update", "error", err)
				return
			}
			_ = writeJSON(mapUpdatedMessage{
				Type:       "map.updated",
				Layers:     u.Layers,
				RenderedAt: u.RenderedAt.UTC().Format(time.RFC3339),
			})
		})
		if err != nil {
			slog.Error("ws subscribe failed", "subject", natsadapter.SubjectMapUpdated, "error", err)
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		slog.Debug("ws client disconnected", "remote", remoteAddr)
	}
}
