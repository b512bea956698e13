package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"voice-journal/backend/internal/mood"
)

const (
	maxMessageSize = 64 * 1024
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	writeWait      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// inbound is what a device sends while editing an entry.
type inbound struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type draftAnalysis struct {
	Type string `json:"type"`
	mood.Result
}

// LiveAnalysis configures draft re-analysis on a connection.
type LiveAnalysis struct {
	Analyze mood.AnalyzeFunc
	Window  time.Duration
}

func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, deviceID string, live LiveAnalysis) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := NewClient(deviceID)
	hub.Register(client)

	go writePump(conn, client, hub)
	readPump(conn, client, hub, live)
}

func readPump(conn *websocket.Conn, client *Client, hub *Hub, live LiveAnalysis) {
	ctx, cancel := context.WithCancel(context.Background())
	var drafts *mood.Debouncer
	if live.Analyze != nil {
		drafts = mood.NewDebouncer(ctx, live.Window, live.Analyze, func(result mood.Result) {
			message, err := json.Marshal(draftAnalysis{Type: "draft.analysis", Result: result})
			if err == nil {
				client.Deliver(message)
			}
		})
	}
	defer func() {
		if drafts != nil {
			drafts.Close()
		}
		cancel()
		hub.Unregister(client)
		_ = conn.Close()
	}()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg inbound
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		if msg.Type != "draft" || drafts == nil {
			continue
		}
		if strings.TrimSpace(msg.Text) == "" {
			drafts.Cancel()
			continue
		}
		drafts.Submit(msg.Text)
	}
}

func writePump(conn *websocket.Conn, client *Client, hub *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		hub.Unregister(client)
		_ = conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
