package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"voice-journal/backend/internal/models"
)

type ConnectionObserver interface {
	ConnectionOpened()
	ConnectionClosed()
}

// Hub fans events out to every connected device.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	presence map[string]int
	observer ConnectionObserver
	logger   *slog.Logger
}

type Client struct {
	DeviceID string
	Send     chan []byte

	mu     sync.Mutex
	closed bool
}

func NewHub(observer ConnectionObserver, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:  map[*Client]struct{}{},
		presence: map[string]int{},
		observer: observer,
		logger:   logger,
	}
}

func NewClient(deviceID string) *Client {
	return &Client{DeviceID: deviceID, Send: make(chan []byte, 16)}
}

// Deliver queues message without blocking. Slow clients drop messages.
func (c *Client) Deliver(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	close(c.Send)
	return true
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
	h.presence[client.DeviceID]++
	if h.observer != nil {
		h.observer.ConnectionOpened()
	}
	h.broadcastPresenceLocked()
}

// Unregister is safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if count := h.presence[client.DeviceID]; count <= 1 {
		delete(h.presence, client.DeviceID)
	} else {
		h.presence[client.DeviceID] = count - 1
	}
	client.close()
	if h.observer != nil {
		h.observer.ConnectionClosed()
	}
	h.broadcastPresenceLocked()
}

func (h *Hub) Broadcast(payload any) {
	message, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("encode broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.Deliver(message)
	}
}

// EntryChanged relays journal mutations to connected devices.
func (h *Hub) EntryChanged(event string, entry models.JournalEntry) {
	h.Broadcast(map[string]any{
		"type":  event,
		"entry": entry,
	})
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastPresenceLocked() {
	devices := make([]string, 0, len(h.presence))
	for deviceID := range h.presence {
		devices = append(devices, deviceID)
	}
	message, err := json.Marshal(map[string]any{
		"type":    "presence.update",
		"devices": devices,
	})
	if err != nil {
		return
	}
	for client := range h.clients {
		client.Deliver(message)
	}
}
