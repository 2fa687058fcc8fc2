package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"conclave/internal/domain"
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateSessionRequest is the request body for session creation
type CreateSessionRequest struct {
	ScenarioID string `json:"scenarioId"`
}

// CreateSessionResponse is the response for session creation
type CreateSessionResponse struct {
	SessionID string             `json:"sessionId"`
	GameState domain.PublicState `json:"gameState"`
}

// ScenarioSummary describes one playable scenario
type ScenarioSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Setting string `json:"setting"`
	Cast    int    `json:"cast"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	ActiveSessions int `json:"activeSessions"`
}

// handleCreateSession handles POST /api/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.Body != nil {
		// An empty or absent body selects the default scenario.
		json.NewDecoder(r.Body).Decode(&req)
	}

	runtime, err := s.hub.CreateSession(r.Context(), req.ScenarioID)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "CREATION_FAILED", err.Error())
		return
	}

	s.sendSuccess(w, &CreateSessionResponse{
		SessionID: runtime.SessionID(),
		GameState: runtime.PublicState(true),
	})
}

// handleGetSession handles GET /api/sessions/{sessionId}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		s.sendError(w, http.StatusBadRequest, "MISSING_SESSION_ID", "Session id is required")
		return
	}

	runtime, err := s.hub.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.sendError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
		} else {
			s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}
		return
	}

	full := r.URL.Query().Get("full") == "true"
	s.sendSuccess(w, runtime.PublicState(full))
}

// handleDeleteSession handles DELETE /api/sessions/{sessionId}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		s.sendError(w, http.StatusBadRequest, "MISSING_SESSION_ID", "Session id is required")
		return
	}

	s.hub.Delete(r.Context(), sessionID)
	s.sendSuccess(w, nil)
}

// handleListScenarios handles GET /api/scenarios
func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios := domain.Scenarios()
	out := make([]ScenarioSummary, 0, len(scenarios))
	for _, sc := range scenarios {
		out = append(out, ScenarioSummary{
			ID:      sc.ID,
			Title:   sc.World.Title,
			Setting: sc.World.Setting,
			Cast:    len(sc.Cast),
		})
	}
	s.sendSuccess(w, out)
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{Status: "ok"})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &StatsResponse{ActiveSessions: s.hub.SessionCount()})
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
