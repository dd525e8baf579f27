package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Websocket message types
const (
	MessageGenerate          = "generate"
	MessageExtractCharacters = "extract_characters"
	MessageConnected         = "connected"
	MessageError             = "error"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is a request sent by a websocket client.
type Message struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// Reply carries the complete answer to one Message. Status mirrors the HTTP code
// the same request would get on the REST endpoint.
type Reply struct {
	Type             string      `json:"type"`
	ID               string      `json:"id,omitempty"`
	Status           int         `json:"status"`
	Payload          interface{} `json:"payload"`
	ExtractionStatus string      `json:"extraction_status,omitempty"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *TurnHub

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// TurnHub tracks websocket clients and answers their turn requests.
// Each message is handled independently, like an HTTP request.
type TurnHub struct {
	handlers   *Handlers
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     *zap.Logger
}

func NewTurnHub(handlers *Handlers, logger *zap.Logger) *TurnHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TurnHub{
		handlers:   handlers,
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 100),
		unregister: make(chan *Client, 100),
		logger:     logger.Named("hub"),
	}
}

// Run starts the hub's event loop. It closes every client when ctx ends.
func (h *TurnHub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				client.close()
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *TurnHub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	h.logger.Info("Client connected", zap.String("client_id", client.ID), zap.Int("total", len(h.clients)))

	go client.writePump()
}

func (h *TurnHub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		client.close()
		h.logger.Info("Client disconnected", zap.String("client_id", client.ID), zap.Int("total", len(h.clients)))
	}
}

// GetClientCount returns the number of connected clients
func (h *TurnHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the connection and registers the client.
func (h *TurnHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		ID:     uuid.NewString(),
		Conn:   conn,
		Send:   make(chan []byte, 64),
		Hub:    h,
		ctx:    ctx,
		cancel: cancel,
	}
	h.register <- client

	client.reply(&Reply{
		Type:    MessageConnected,
		ID:      client.ID,
		Status:  http.StatusOK,
		Payload: map[string]interface{}{"time": time.Now().Unix()},
	})

	go client.readPump()
}

// dispatch answers one client message.
func (h *TurnHub) dispatch(ctx context.Context, msg *Message) *Reply {
	reply := &Reply{Type: msg.Type, ID: msg.ID}

	switch msg.Type {
	case MessageGenerate:
		reply.Status, reply.Payload = h.handlers.generate(ctx, msg.Payload)
	case MessageExtractCharacters:
		resp, ok := h.handlers.extract(ctx, msg.Payload)
		reply.Status = http.StatusOK
		reply.Payload = resp
		reply.ExtractionStatus = extractionStatus(ok)
	default:
		reply.Type = MessageError
		reply.Status = http.StatusBadRequest
		reply.Payload = ErrorResponse{Detail: "unknown message type: " + msg.Type}
	}

	return reply
}

// reply queues a message for the write pump. Dropped once the client is gone.
func (c *Client) reply(r *Reply) {
	data, err := json.Marshal(r)
	if err != nil {
		c.Hub.logger.Error("Failed to marshal reply", zap.String("client_id", c.ID), zap.Error(err))
		return
	}

	select {
	case c.Send <- data:
	case <-c.ctx.Done():
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		c.cancel()
		_ = c.Conn.Close()
	})
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.logger.Warn("Error writing to client", zap.String("client_id", c.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.Conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return
		}
	}
}

// readPump reads client messages and answers each in its own goroutine
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
	}()

	c.Conn.SetReadLimit(maxBodyBytes)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Unexpected close", zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(&Reply{
				Type:    MessageError,
				Status:  http.StatusUnprocessableEntity,
				Payload: ErrorResponse{Detail: "Invalid message: " + err.Error()},
			})
			continue
		}

		go func(msg Message) {
			c.reply(c.Hub.dispatch(c.ctx, &msg))
		}(msg)
	}
}
