package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Hub tracks websocket clients per topic and pushes refresh events to them.
type Hub struct {
	allowedOrigins []string
	logger         *zap.Logger

	mu      sync.RWMutex
	clients map[string]map[*websocket.Conn]bool

	// writeMu serializes broadcasts; a connection allows one writer.
	writeMu sync.Mutex
}

func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	return &Hub{
		allowedOrigins: allowedOrigins,
		logger:         logger,
		clients:        make(map[string]map[*websocket.Conn]bool),
	}
}

// BroadcastRefresh tells every client subscribed to topic to reload.
func (h *Hub) BroadcastRefresh(topic string) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients[topic]))
	for conn := range h.clients[topic] {
		clients = append(clients, conn)
	}
	h.mu.RUnlock()

	for _, conn := range clients {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			h.drop(topic, conn)
			continue
		}

		err := conn.WriteJSON(map[string]string{
			"type":    "refresh",
			"message": "Monitor data updated",
			"topic":   topic,
		})
		if err != nil {
			h.logger.Debug("dropping websocket client", zap.String("topic", topic), zap.Error(err))
			h.drop(topic, conn)
		}
	}
}

// ClientCount reports the number of subscribers of topic.
func (h *Hub) ClientCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

func (h *Hub) add(topic string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[topic] == nil {
		h.clients[topic] = make(map[*websocket.Conn]bool)
	}
	h.clients[topic][conn] = true
}

func (h *Hub) drop(topic string, conn *websocket.Conn) {
	h.mu.Lock()
	if clients, exists := h.clients[topic]; exists {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.clients, topic)
		}
	}
	h.mu.Unlock()

	conn.Close()
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// Serve upgrades the request and keeps the connection subscribed to the
// ?topic= query parameter (default "monitor") until it closes.
func (h *Hub) Serve(c *gin.Context) {
	topic := c.DefaultQuery("topic", "monitor")

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}

	err = conn.WriteJSON(map[string]string{
		"type":    "connected",
		"message": "WebSocket connection established",
		"topic":   topic,
	})
	if err != nil {
		return
	}

	h.add(topic, conn)
	defer h.drop(topic, conn)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// WriteControl is safe to call alongside WriteJSON
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Info("websocket closed", zap.String("topic", topic), zap.Error(err))
			}
			return
		}
	}
}
