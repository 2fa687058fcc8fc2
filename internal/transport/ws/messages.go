package ws

import (
	"time"

	"conclave/internal/domain"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgStartGame    MessageType = "start_game"
	MsgChat         MessageType = "chat"
	MsgCastVote     MessageType = "cast_vote"
	MsgAdvanceNight MessageType = "advance_night"
	MsgNightAction  MessageType = "night_action"
	MsgPing         MessageType = "ping"
)

// Server → Client message types
const (
	MsgConnected MessageType = "connected"
	MsgEvent     MessageType = "event"
	MsgError     MessageType = "error"
	MsgPong      MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Client message payloads

// ChatPayload is the payload for a chat message
type ChatPayload struct {
	Content string `json:"content"`
}

// CastVotePayload is the payload for a cast_vote message
type CastVotePayload struct {
	TargetID string `json:"targetId"`
}

// NightActionPayload is the payload for a night_action message
type NightActionPayload struct {
	ActionType string `json:"actionType"`
	TargetID   string `json:"targetId"`
}

// Server message payloads

// ConnectedPayload is the payload for the connected message
type ConnectedPayload struct {
	SessionID string             `json:"sessionId"`
	GameState domain.PublicState `json:"gameState"`
}

// ErrorPayload is the payload for an error message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInvalidMessage   = "INVALID_MESSAGE"
	ErrCodeSessionNotFound  = "SESSION_NOT_FOUND"
	ErrCodeSessionEnded     = "SESSION_ENDED"
	ErrCodeInvalidAction    = "INVALID_ACTION"
	ErrCodeInvalidTarget    = "INVALID_TARGET"
	ErrCodePlayerEliminated = "PLAYER_ELIMINATED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)
