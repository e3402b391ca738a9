package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/illumiterm/backend/internal/keymap"
	"github.com/illumiterm/backend/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking in production
		return true
	},
}

// Handler attaches WebSocket clients to the terminal session and routes
// their messages to the session, the frontend state and the key chord
// dispatcher.
type Handler struct {
	hub      *Hub
	frontend *Frontend
	handle   *session.Handle
	coord    *session.Coordinator
	keys     *keymap.Dispatcher
	log      *zap.Logger

	onTitle func(title string)
}

// NewHandler wires the handler into the hub and the session: incoming
// messages dispatch through the hub callback and child output broadcasts
// to all attached clients.
func NewHandler(hub *Hub, frontend *Frontend, handle *session.Handle, coord *session.Coordinator, keys *keymap.Dispatcher, log *zap.Logger) *Handler {
	h := &Handler{
		hub:      hub,
		frontend: frontend,
		handle:   handle,
		coord:    coord,
		keys:     keys,
		log:      log,
	}

	hub.SetOnMessage(h.handleMessage)
	hub.SetOnAllDetached(frontend.AbortConfirm)
	handle.SetOnOutput(func(data []byte) {
		hub.BroadcastMessage(&Message{
			Type: MessageTypeStdout,
			Data: string(data),
		})
	})

	return h
}

// SetOnTitle sets the callback invoked when a client reports a new window
// title.
func (h *Handler) SetOnTitle(callback func(title string)) {
	h.onTitle = callback
}

// HandleConnection upgrades the HTTP connection to WebSocket and attaches
// the client to the session.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(conn)
	h.hub.Register(client)

	h.sendOptions(client)
	h.sendHistory(client)

	go h.writePump(client)
	go h.readPump(client)

	return nil
}

// sendOptions pushes the widget option set so a fresh client configures
// its terminal the same way every other client did.
func (h *Handler) sendOptions(client *Client) {
	payload, err := json.Marshal(h.handle.TermOptions())
	if err != nil {
		h.log.Warn("failed to marshal terminal options", zap.Error(err))
		return
	}
	client.SendMessage(&Message{
		Type:    MessageTypeOptions,
		Payload: payload,
	})
}

// sendHistory sends the retained output so a fresh client restores the
// current screen contents.
func (h *Handler) sendHistory(client *Client) {
	history := h.handle.History()
	if len(history) == 0 {
		return
	}
	client.SendMessage(&Message{
		Type: MessageTypeHistory,
		Data: string(history),
	})
}

// handleMessage processes incoming messages from clients.
func (h *Handler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case MessageTypeStdin:
		h.handleStdin(msg)
	case MessageTypeResize:
		h.handleResize(msg)
	case MessageTypeMetrics:
		h.frontend.UpdateMetrics(int(msg.Rows), int(msg.Cols), msg.CellWidth, msg.CellHeight, msg.Width, msg.Height)
	case MessageTypeSelection:
		h.frontend.SetSelection(msg.Data)
	case MessageTypeTitle:
		h.frontend.SetTitle(msg.Data)
		if h.onTitle != nil {
			h.onTitle(msg.Data)
		}
	case MessageTypeKey:
		h.handleKey(msg)
	case MessageTypeConfirm:
		h.handleConfirm(msg)
	case MessageTypeCloseRequest:
		// RequestClose blocks on the confirmation round trip, which is
		// answered through this same read path.
		go h.coord.RequestClose()
	case MessageTypePing:
		client.SendMessage(&Message{Type: MessageTypePong})
	}
}

// handleStdin handles keystrokes from the client.
func (h *Handler) handleStdin(msg *Message) {
	if msg.Data == "" {
		return
	}
	if err := h.handle.Write([]byte(msg.Data)); err != nil {
		h.log.Warn("failed to write to PTY", zap.Error(err))
	}
}

// handleResize handles terminal grid resize events.
func (h *Handler) handleResize(msg *Message) {
	if msg.Rows == 0 || msg.Cols == 0 {
		return
	}
	h.frontend.SetGrid(int(msg.Rows), int(msg.Cols))
	if err := h.handle.Resize(msg.Rows, msg.Cols); err != nil {
		h.log.Warn("failed to resize PTY", zap.Error(err))
	}
}

// handleKey runs a key event through the chord dispatcher. Unclaimed
// events are dropped; clients feed ordinary keystrokes through stdin.
func (h *Handler) handleKey(msg *Message) {
	if msg.Key == nil {
		return
	}
	h.keys.Dispatch(*msg.Key)
}

func (h *Handler) handleConfirm(msg *Message) {
	if msg.Accept == nil {
		return
	}
	h.frontend.ResolveConfirm(*msg.Accept)
}

// readPump pumps messages from the WebSocket connection to the hub.
func (h *Handler) readPump(client *Client) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn().Close()
	}()

	client.Conn().SetReadLimit(maxMessageSize)
	client.Conn().SetReadDeadline(time.Now().Add(pongWait))
	client.Conn().SetPongHandler(func(string) error {
		client.Conn().SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn().ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read error", zap.Error(err))
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			h.log.Warn("failed to unmarshal message", zap.Error(err))
			continue
		}

		h.hub.HandleMessage(client, &msg)
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn().Close()
	}()

	for {
		select {
		case message, ok := <-client.SendChan():
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				client.Conn().WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Send each message in a separate WebSocket frame so the
			// frontend can JSON.parse frames independently.
			if err := client.Conn().WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(client.SendChan())
			for i := 0; i < n; i++ {
				queuedMsg := <-client.SendChan()
				client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.Conn().WriteMessage(websocket.TextMessage, queuedMsg); err != nil {
					return
				}
			}
		case <-ticker.C:
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn().WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// BroadcastStatus pushes a lifecycle state change to all attached clients.
func (h *Handler) BroadcastStatus(state string, exitCode *int) {
	h.hub.BroadcastMessage(&Message{
		Type:  MessageTypeStatus,
		State: state,
		Code:  exitCode,
	})
}
