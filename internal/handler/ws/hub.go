// Package ws pushes refresh events to connected dashboard clients.
package ws

import (
	"net/http"
	"sync"
	"time"

	"CoinBoard/internal/domain/models"
	xlogger "CoinBoard/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from another origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RefreshEvent is pushed to every client after a refresh cycle lands.
type RefreshEvent struct {
	Type    string   `json:"type"`
	CoinIDs []string `json:"coin_ids"`
	At      string   `json:"at"`
}

// Hub tracks connected WebSocket clients and fans out refresh events.
type Hub struct {
	logger *xlogger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub(logger *xlogger.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// RegisterRoutes mounts the upgrade endpoint.
func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.serve)
}

func (h *Hub) serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ws client connected", xlogger.Int("clients", n))

	// Reader goroutine only drains control frames and detects close.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}

// NotifyRefresh broadcasts the ids of freshly refreshed coins.
func (h *Hub) NotifyRefresh(coins []models.CoinMarket) {
	ids := make([]string, 0, len(coins))
	for i := range coins {
		ids = append(ids, coins[i].ID)
	}
	h.broadcast(RefreshEvent{
		Type:    "refresh",
		CoinIDs: ids,
		At:      time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Hub) broadcast(event RefreshEvent) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			h.drop(conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		_ = conn.Close()
	}
	h.mu.Unlock()
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	for conn := range h.clients {
		_ = conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()
}
