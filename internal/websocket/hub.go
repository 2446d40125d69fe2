package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dialog-backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Responder produces a reply for a message within a conversation.
type Responder interface {
	GetResponse(ctx context.Context, text, conversation string) (*models.Statement, error)
}

// TokenValidator checks the token passed in the "token" query parameter.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// Hub serves conversations over websockets. Every connection is one
// conversation with its own id.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*websocket.Conn
	bot         Responder
	auth        TokenValidator
	logger      *zap.Logger
	closed      bool
}

// NewHub creates a hub. auth may be nil, in which case no token is required.
func NewHub(bot Responder, auth TokenValidator, logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*websocket.Conn),
		bot:         bot,
		auth:        auth,
		logger:      logger,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	if h.auth != nil {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if _, err := h.auth.Validate(tokenStr); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	conversation := uuid.New()
	if !h.registerConnection(conversation, conn) {
		conn.Close()
		return
	}

	go h.serve(conversation, conn)
}

func (h *Hub) serve(conversation uuid.UUID, conn *websocket.Conn) {
	defer h.unregisterConnection(conversation, conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var in models.WSMessage
		if err := json.Unmarshal(data, &in); err != nil {
			h.write(conn, models.WSMessage{Error: "invalid message frame"})
			continue
		}
		if strings.TrimSpace(in.Message) == "" {
			h.write(conn, models.WSMessage{Error: "message is required"})
			continue
		}

		reply, err := h.bot.GetResponse(ctx, in.Message, conversation.String())
		if err != nil {
			h.logger.Error(
				"failed to get response",
				zap.Error(err),
				zap.Stringer("conversation", conversation),
			)
			h.write(conn, models.WSMessage{Error: "failed to generate a reply"})
			continue
		}

		if err := h.write(conn, models.WSMessage{Reply: reply.Text}); err != nil {
			return
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, msg models.WSMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func (h *Hub) registerConnection(conversation uuid.UUID, conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.connections[conversation] = conn

	h.logger.Debug(
		"websocket connected",
		zap.Stringer("conversation", conversation),
		zap.Int("total", len(h.connections)),
	)
	return true
}

func (h *Hub) unregisterConnection(conversation uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	delete(h.connections, conversation)

	h.logger.Debug("websocket disconnected", zap.Stringer("conversation", conversation))
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// CloseAll sends a close frame to every connection and refuses new ones.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for id, conn := range h.connections {
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		conn.Close()
		delete(h.connections, id)
	}
}
