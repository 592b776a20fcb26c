package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"betwise-backend/internal/ledger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler pushes balance updates to connected clients. It
// implements services.BalanceBroadcaster so the game engines can notify
// it after each settlement.
type WebSocketHandler struct {
	store *ledger.Store

	mu      sync.RWMutex
	clients map[int64]*client

	log *logrus.Entry
}

type client struct {
	conn *websocket.Conn
	// Serializes writes; gorilla connections allow one concurrent writer.
	mu sync.Mutex
}

type wsMessage struct {
	Type string `json:"type"`
	Data gin.H  `json:"data,omitempty"`
}

func NewWebSocketHandler(store *ledger.Store) *WebSocketHandler {
	return &WebSocketHandler{
		store:   store,
		clients: make(map[int64]*client),
		log:     logrus.WithField("component", "websocket"),
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetInt64("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	cl := &client{conn: conn}

	h.mu.Lock()
	// A reconnect replaces any previous connection for the user.
	if old, ok := h.clients[userID]; ok {
		old.conn.Close()
	}
	h.clients[userID] = cl
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if h.clients[userID] == cl {
			delete(h.clients, userID)
		}
		h.mu.Unlock()
		conn.Close()
	}()

	h.sendCurrentBalance(c, userID, cl)

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithError(err).WithField("user_id", userID).Debug("websocket closed")
			}
			return
		}

		if msg.Type == "PING" {
			cl.write(wsMessage{
				Type: "PONG",
				Data: gin.H{"timestamp": time.Now().Unix()},
			})
		}
	}
}

// PushBalance implements services.BalanceBroadcaster. Users with no open
// connection are skipped silently.
func (h *WebSocketHandler) PushBalance(userID, balance int64) {
	h.mu.RLock()
	cl, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	cl.write(wsMessage{
		Type: "BALANCE_UPDATE",
		Data: gin.H{"balance": balance},
	})
}

func (h *WebSocketHandler) sendCurrentBalance(c *gin.Context, userID int64, cl *client) {
	balance, err := h.store.Balance(c.Request.Context(), userID)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("failed to load balance for websocket")
		return
	}

	cl.write(wsMessage{
		Type: "BALANCE_UPDATE",
		Data: gin.H{"balance": balance},
	})
}

func (c *client) write(msg wsMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.WriteJSON(msg)
}
