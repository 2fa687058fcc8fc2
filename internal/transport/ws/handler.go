package ws

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"conclave/internal/app"
	"conclave/internal/domain"
)

// Handler handles WebSocket connections
type Handler struct {
	hub      *app.SessionHub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *app.SessionHub, logger *slog.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for development
				// In production, you should validate the origin
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "sessionId is required", http.StatusBadRequest)
		return
	}

	runtime, err := h.hub.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
		} else {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, runtime, h.logger)

	h.logger.Info("websocket connected", "session", sessionID)

	// Full state on connect covers both fresh joins and reconnections.
	client.sendConnected()
	client.Run()
}
