// Package notify pushes triggered alerts to connected websocket clients.
package notify

import (
	"net/http"
	"sync"
	"time"

	"findash/internal/models"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

// Message is the JSON frame sent to clients.
type Message struct {
	Type  string          `json:"type"`
	Alert models.Alert    `json:"alert"`
	Price decimal.Decimal `json:"price"`
}

const TypeAlertTriggered = "alert.triggered"

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // gorilla connections allow one concurrent writer
}

// Hub fans triggered alerts out to the websocket connections of the alert's owner.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger.Named("notify"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]map[*client]struct{}),
	}
}

// Serve upgrades the request and keeps the connection registered for userID until the
// client goes away. It blocks for the life of the connection.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn}
	h.add(userID, c)
	defer h.remove(userID, c)

	// Drain reads so close frames and dead peers are noticed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// AlertTriggered sends the alert to every connection of its owner.
func (h *Hub) AlertTriggered(a models.Alert, price decimal.Decimal) {
	msg := Message{Type: TypeAlertTriggered, Alert: a, Price: price}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[a.UserID]))
	for c := range h.clients[a.UserID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.mu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := c.conn.WriteJSON(msg)
		c.mu.Unlock()
		if err != nil {
			h.logger.Debug("Dropping websocket client", zap.String("user_id", a.UserID), zap.Error(err))
			h.remove(a.UserID, c)
		}
	}
}

// Connections returns how many sockets userID has open.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) add(userID string, c *client) {
	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(userID string, c *client) {
	h.mu.Lock()
	if set, ok := h.clients[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, userID)
		}
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}
