package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/mgpai22/livecap/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. A cumulative transcript for
	// a long session fits comfortably.
	maxMessageSize = 1 << 20

	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub tracks the websocket clients attached to each session and fans
// session events out to them.
type Hub struct {
	// clients by session ID
	clients map[string]map[*Client]struct{}
	closed  bool

	mu sync.RWMutex

	logger *logging.Logger
}

func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// register attaches a client before its pumps start, so it sees every
// event that follows its own messages. It fails once the hub is closed.
func (h *Hub) register(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	set, ok := h.clients[client.session.ID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[client.session.ID] = set
	}
	set[client] = struct{}{}
	h.logger.Infow("Client registered", "session_id", client.session.ID)
	return true
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.removeLocked(client) {
		h.logger.Infow("Client unregistered", "session_id", client.session.ID)
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, set := range h.clients {
		for client := range set {
			h.removeLocked(client)
		}
	}
}

// Disconnect drops every client attached to sessionID.
func (h *Hub) Disconnect(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients[sessionID] {
		h.removeLocked(client)
	}
}

// closing send makes writePump send a close frame and drop the connection
func (h *Hub) removeLocked(client *Client) bool {
	set, ok := h.clients[client.session.ID]
	if !ok {
		return false
	}
	if _, ok := set[client]; !ok {
		return false
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.session.ID)
	}
	return true
}

// Broadcast sends v as JSON to every client attached to sessionID. Clients
// whose buffer is full miss the message.
func (h *Hub) Broadcast(sessionID string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Errorw("Failed to encode message", "session_id", sessionID, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[sessionID] {
		select {
		case client.send <- payload:
		default:
			h.logger.Warnw("Client send buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// ClientCount reports how many clients are attached to sessionID.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Client is a middleman between the websocket connection and a session.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	session *Session
	logger  *logging.Logger
}

// HandleWebSocket upgrades the request and attaches the connection to
// session.
func HandleWebSocket(hub *Hub, session *Session, c echo.Context, logger *logging.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Errorw("WebSocket upgrade failed", "error", err)
		return err
	}

	client := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		session: session,
		logger:  logger.With("session_id", session.ID),
	}

	if !hub.register(client) {
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return nil
}

// readPump feeds transcript updates from the connection into the session.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Errorw("WebSocket error", "error", err)
			}
			break
		}
		if messageType != websocket.TextMessage {
			c.logger.Warnw("Ignoring non-text message", "type", messageType)
			continue
		}
		c.processMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Errorw("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) processMessage(message []byte) {
	msg, err := parseInbound(message)
	if err != nil {
		c.logger.Warnw("Failed to parse message", "error", err)
		c.reply(errorMessage(c.session.ID, "invalid_message", "Message is not valid JSON"))
		return
	}

	switch msg.Type {
	case MessageTypeTranscript:
		c.session.Observe(msg.Text, msg.listening())
	case MessageTypeStop:
		c.session.Stop()
		c.hub.Broadcast(c.session.ID, stateMessage(c.session.ID, c.session.Snapshot()))
	default:
		c.logger.Warnw("Unknown message type", "type", msg.Type)
		c.reply(errorMessage(c.session.ID, "unknown_type", "Unknown message type"))
	}
}

// reply queues a message for this client only.
func (c *Client) reply(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c.session.ID][c]; !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}
