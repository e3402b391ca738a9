package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/illumiterm/backend/internal/keymap"
)

// MessageType represents the type of WebSocket message.
type MessageType string

const (
	// Client -> Server message types
	MessageTypeStdin        MessageType = "stdin"
	MessageTypeResize       MessageType = "resize"
	MessageTypeMetrics      MessageType = "metrics"
	MessageTypeSelection    MessageType = "selection"
	MessageTypeTitle        MessageType = "title"
	MessageTypeKey          MessageType = "key"
	MessageTypeConfirm      MessageType = "confirm"
	MessageTypeCloseRequest MessageType = "close_request"
	MessageTypePing         MessageType = "ping"

	// Server -> Client message types
	MessageTypeStdout       MessageType = "stdout"
	MessageTypeHistory      MessageType = "history"
	MessageTypeOptions      MessageType = "options"
	MessageTypeGeometry     MessageType = "geometry"
	MessageTypeConfirmClose MessageType = "confirm_close"
	MessageTypeStatus       MessageType = "status"
	MessageTypePong         MessageType = "pong"
	MessageTypeError        MessageType = "error"
)

// Geometry directives carried in the Data field of a geometry message.
const (
	GeometryResizeWindow = "resize_window"
	GeometryFontScale    = "font_scale"
	GeometryResetFont    = "reset_font"
)

// Message represents a WebSocket message.
type Message struct {
	Type       MessageType     `json:"type"`
	Data       string          `json:"data,omitempty"`
	Rows       uint16          `json:"rows,omitempty"`
	Cols       uint16          `json:"cols,omitempty"`
	CellWidth  int             `json:"cellWidth,omitempty"`
	CellHeight int             `json:"cellHeight,omitempty"`
	Width      int             `json:"width,omitempty"`
	Height     int             `json:"height,omitempty"`
	FontScale  float64         `json:"fontScale,omitempty"`
	Accept     *bool           `json:"accept,omitempty"`
	Key        *keymap.Event   `json:"key,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	State      string          `json:"state,omitempty"`
	Code       *int            `json:"code,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Client represents a WebSocket client connection.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	mu     sync.Mutex
	closed bool
}

// NewClient creates a new WebSocket client.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Send queues a message to be sent to the client.
func (c *Client) Send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		// Buffer full, close the client
		c.closeLocked()
	}
}

// SendMessage marshals and queues a Message.
func (c *Client) SendMessage(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.Send(data)
	return nil
}

// Close closes the client connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// IsClosed returns true if the client is closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Conn returns the underlying WebSocket connection.
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

// SendChan returns the send channel for the client.
func (c *Client) SendChan() <-chan []byte {
	return c.send
}

// Hub manages the WebSocket clients attached to the session. The
// application has exactly one session, so there is exactly one hub.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	// Callbacks
	onMessage     func(client *Client, msg *Message)
	onAllDetached func()
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
	}
}

// SetOnMessage sets the callback for incoming messages.
func (h *Hub) SetOnMessage(callback func(client *Client, msg *Message)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMessage = callback
}

// SetOnAllDetached sets the callback invoked when the last client
// disconnects.
func (h *Hub) SetOnAllDetached(callback func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onAllDetached = callback
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	delete(h.clients, client)
	clientCount := len(h.clients)
	onAllDetached := h.onAllDetached
	h.mu.Unlock()

	client.Close()

	if clientCount == 0 && onAllDetached != nil {
		onAllDetached()
	}
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		client.Send(data)
	}
}

// BroadcastMessage sends a Message to all connected clients.
func (h *Hub) BroadcastMessage(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HasClients returns true if there are connected clients.
func (h *Hub) HasClients() bool {
	return h.ClientCount() > 0
}

// HandleMessage processes an incoming message from a client.
func (h *Hub) HandleMessage(client *Client, msg *Message) {
	h.mu.RLock()
	callback := h.onMessage
	h.mu.RUnlock()

	if callback != nil {
		callback(client, msg)
	}
}

// Close closes all client connections and the hub.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]bool)
	h.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}
