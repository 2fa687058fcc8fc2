package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"conclave/internal/app"
	"conclave/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Size of the send channel buffer
	sendBufferSize = 256
)

// Client represents one player's WebSocket connection to a session. Inbound
// actions run on the read pump, which forwards each operation's event stream
// to completion before reading the next action, so the player sees rounds in
// order even though resolution continues server-side if they disconnect.
type Client struct {
	conn    *websocket.Conn
	runtime *app.Runtime
	send    chan []byte
	done    chan struct{}
	logger  *slog.Logger
	mu      sync.Mutex
	closed  bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, runtime *app.Runtime, logger *slog.Logger) *Client {
	return &Client{
		conn:    conn,
		runtime: runtime,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// Send queues a message for the write pump, dropping it if the buffer is full
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.logger.Warn("send buffer full, message dropped", "session", c.runtime.SessionID())
		return nil
	}
}

// Close shuts down the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	switch msg.Type {
	case MsgStartGame:
		c.runOperation(func(ctx context.Context) (<-chan domain.Event, error) {
			return c.runtime.StartGame(ctx)
		})
	case MsgChat:
		c.handleChat(msg.Payload)
	case MsgCastVote:
		c.handleCastVote(msg.Payload)
	case MsgAdvanceNight:
		c.runOperation(func(ctx context.Context) (<-chan domain.Event, error) {
			return c.runtime.AdvanceNight(ctx)
		})
	case MsgNightAction:
		c.handleNightAction(msg.Payload)
	case MsgPing:
		c.Send(NewServerMessage(MsgPong, nil))
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
	}
}

// runOperation invokes a session operation and forwards its event stream.
// Forwarding is synchronous on the read pump: the next client action is not
// read until the stream closes.
func (c *Client) runOperation(op func(ctx context.Context) (<-chan domain.Event, error)) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := op(ctx)
	if err != nil {
		c.sendOperationError(err)
		return
	}

	for event := range events {
		c.Send(NewServerMessage(MsgEvent, event))
	}
}

// handleChat handles a chat message
func (c *Client) handleChat(payload interface{}) {
	content, ok := stringField(payload, "content")
	if !ok || content == "" {
		c.sendError(ErrCodeInvalidMessage, "Message content is required")
		return
	}

	c.runOperation(func(ctx context.Context) (<-chan domain.Event, error) {
		return c.runtime.SubmitChat(ctx, content)
	})
}

// handleCastVote handles a cast_vote message
func (c *Client) handleCastVote(payload interface{}) {
	targetID, _ := stringField(payload, "targetId")

	c.runOperation(func(ctx context.Context) (<-chan domain.Event, error) {
		return c.runtime.SubmitVote(ctx, targetID)
	})
}

// handleNightAction handles a night_action message
func (c *Client) handleNightAction(payload interface{}) {
	actionType, ok := stringField(payload, "actionType")
	if !ok || actionType == "" {
		c.sendError(ErrCodeInvalidMessage, "Action type is required")
		return
	}
	targetID, _ := stringField(payload, "targetId")

	c.runOperation(func(ctx context.Context) (<-chan domain.Event, error) {
		return c.runtime.SubmitNightAction(ctx, domain.ActionKind(actionType), targetID)
	})
}

// sendConnected sends the connected message with the full session state
func (c *Client) sendConnected() {
	payload := &ConnectedPayload{
		SessionID: c.runtime.SessionID(),
		GameState: c.runtime.PublicState(true),
	}
	c.Send(NewServerMessage(MsgConnected, payload))
}

// sendOperationError maps a rejected operation to a client error message
func (c *Client) sendOperationError(err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		c.sendError(ErrCodeSessionNotFound, "Session not found")
	case errors.Is(err, domain.ErrSessionEnded):
		c.sendError(ErrCodeSessionEnded, "The game has ended")
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrInvalidPhase),
		errors.Is(err, domain.ErrNotAwaitingAction), errors.Is(err, domain.ErrEmptyMessage):
		c.sendError(ErrCodeInvalidAction, err.Error())
	case errors.Is(err, domain.ErrInvalidTarget):
		c.sendError(ErrCodeInvalidTarget, err.Error())
	case errors.Is(err, domain.ErrPlayerEliminated):
		c.sendError(ErrCodePlayerEliminated, "You have been eliminated")
	default:
		c.sendError(ErrCodeInternalError, err.Error())
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	c.Send(NewServerMessage(MsgError, &ErrorPayload{Code: code, Message: message}))
}

// stringField extracts a string field from an untyped payload map
func stringField(payload interface{}, key string) (string, bool) {
	payloadMap, ok := payload.(map[string]interface{})
	if !ok {
		return "", false
	}
	value, ok := payloadMap[key].(string)
	return value, ok
}
