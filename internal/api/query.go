package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lectern-app/lectern/internal/assistant"
	"github.com/lectern-app/lectern/internal/tools"
)

// MaxQueryLength bounds the accepted query size in characters.
const MaxQueryLength = 4000

// Querier answers chat queries.
type Querier interface {
	Query(ctx context.Context, query, sessionID string) (assistant.Answer, error)
}

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// QueryResponse is the body of a successful query.
type QueryResponse struct {
	Answer    string         `json:"answer"`
	Sources   []tools.Source `json:"sources"`
	SessionID string         `json:"session_id"`
}

// QueryHandler handles the chat endpoint.
type QueryHandler struct {
	assistant Querier
	logger    *slog.Logger
}

// NewQueryHandler creates a query handler.
func NewQueryHandler(assistant Querier, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{assistant: assistant, logger: logger}
}

// RegisterRoutes registers the query route on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.query)
}

func (h *QueryHandler) query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query must not be empty")
		return
	}
	if len(query) > MaxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long")
		return
	}

	answer, err := h.assistant.Query(r.Context(), query, req.SessionID)
	if err != nil {
		h.logger.Error("query failed", "error", err, "session_id", req.SessionID)
		switch {
		case errors.Is(err, assistant.ErrUpstream):
			writeError(w, http.StatusBadGateway, "upstream_error", "model provider unavailable")
		case errors.Is(err, context.Canceled):
			// Client went away; reply is best effort.
			writeError(w, http.StatusInternalServerError, "canceled", "request canceled")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to process query")
		}
		return
	}

	sources := answer.Sources
	if sources == nil {
		sources = []tools.Source{}
	}
	writeJSON(w, http.StatusOK, QueryResponse{
		Answer:    answer.Text,
		Sources:   sources,
		SessionID: answer.SessionID,
	})
}
