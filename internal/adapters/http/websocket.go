package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/skyplanhq/skyplan/internal/pkg/metrics"
	"github.com/skyplanhq/skyplan/internal/pkg/progress"
)

// wsMessage is sent from client to subscribe/unsubscribe to export progress.
type wsMessage struct {
	Action string `json:"action"`  // "subscribe" | "unsubscribe"
	PlanID string `json:"plan_id"` // plan to watch
}

// WebSocketHandler returns a handler that upgrades to WebSocket and relays
// export progress events to connected clients.
// Clients send JSON: {"action":"subscribe","plan_id":"<uuid>"}
func WebSocketHandler(broker *progress.Broker) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

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

		cancels := make(map[string]func()) // plan ID -> unsubscribe
		done := make(chan struct{})

		// Keep-alive ping
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

		// Read client messages for subscribe/unsubscribe
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if m.PlanID == "" {
				_ = writeJSON(map[string]string{"error": "plan_id is required"})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := cancels[m.PlanID]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "plan_id": m.PlanID})
					continue
				}
				events, cancel := broker.Subscribe(m.PlanID)
				cancels[m.PlanID] = cancel
				go func() {
					for ev := range events {
						if writeJSON(ev) != nil {
							return
						}
					}
				}()
				_ = writeJSON(map[string]string{"status": "subscribed", "plan_id": m.PlanID})

			case "unsubscribe":
				if cancel, exists := cancels[m.PlanID]; exists {
					cancel()
					delete(cancels, m.PlanID)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "plan_id": m.PlanID})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + m.PlanID})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		for _, cancel := range cancels {
			cancel()
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
