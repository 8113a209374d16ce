package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/dropspots/internal/adapters/nats"
	"github.com/samirrijal/dropspots/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsMessage is sent by clients to change their feed.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "all" | "submitted" | "reviewed"
}

var wsChannels = map[string]string{
	"all":       natsadapter.SubjectSpotsAll,
	"submitted": natsadapter.SubjectSpotSubmitted,
	"reviewed":  natsadapter.SubjectSpotReviewed,
}

// WebSocketHandler relays spot events from NATS to the connected client.
// Every client starts on the "all" channel and may switch with
// {"action":"unsubscribe","channel":"all"} then
// {"action":"subscribe","channel":"reviewed"}.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		log := slog.Default().With("remote_addr", c.RemoteAddr().String())
		log.Debug("ws client connected")

		if nc == nil {
			_ = c.WriteMessage(websocket.TextMessage, []byte(`{"error":"event feed unavailable"}`))
			return
		}

		var mu sync.Mutex
		write := func(messageType int, data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(messageType, data)
		}
		writeJSON := func(v any) {
			data, err := json.Marshal(v)
			if err == nil {
				_ = write(websocket.TextMessage, data)
			}
		}
		relay := func(msg *nats.Msg) { _ = write(websocket.TextMessage, msg.Data) }

		subs := make(map[string]*nats.Subscription)
		defer func() {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			log.Debug("ws client disconnected")
		}()

		sub, err := nc.Subscribe(natsadapter.SubjectSpotsAll, relay)
		if err != nil {
			log.Error("ws subscribe", "error", err)
			return
		}
		subs["all"] = sub

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if write(websocket.PingMessage, nil) != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				return
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if m.Channel == "" {
				m.Channel = "all"
			}
			subject, ok := wsChannels[m.Channel]
			if !ok {
				writeJSON(map[string]string{"error": "unknown channel: " + m.Channel})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[m.Channel]; exists {
					writeJSON(map[string]string{"status": "already subscribed", "channel": m.Channel})
					continue
				}
				s, err := nc.Subscribe(subject, relay)
				if err != nil {
					writeJSON(map[string]string{"error": "subscribe failed"})
					log.Warn("ws subscribe", "subject", subject, "error", err)
					continue
				}
				subs[m.Channel] = s
				writeJSON(map[string]string{"status": "subscribed", "channel": m.Channel})

			case "unsubscribe":
				s, exists := subs[m.Channel]
				if !exists {
					writeJSON(map[string]string{"error": "not subscribed to " + m.Channel})
					continue
				}
				_ = s.Unsubscribe()
				delete(subs, m.Channel)
				writeJSON(map[string]string{"status": "unsubscribed", "channel": m.Channel})

			default:
				writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}
	}
}
