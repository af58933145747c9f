package api

import (
	"log/slog"
	"net/http"
)

// SessionManager is the session-store surface the API needs.
type SessionManager interface {
	NewSessionID() string
	Clear(id string)
}

// SessionResponse is the body of POST /api/sessions.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// SessionHandler handles session lifecycle endpoints.
type SessionHandler struct {
	sessions SessionManager
	logger   *slog.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(sessions SessionManager, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// RegisterRoutes registers session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.create)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.clear)
}

func (h *SessionHandler) create(w http.ResponseWriter, _ *http.Request) {
	id := h.sessions.NewSessionID()
	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: id})
}

// clear removes a session's history. Clearing an unknown session is a
// no-op and still returns 204.
func (h *SessionHandler) clear(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session id is required")
		return
	}
	h.sessions.Clear(id)
	w.WriteHeader(http.StatusNoContent)
}
