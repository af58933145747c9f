package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/lectern-app/lectern/internal/tools"
)

// FallbackResponse is returned when the model produces an empty answer.
const FallbackResponse = "I couldn't generate a response. Please try rephrasing your question."

// Answer is the complete result of one chat turn.
type Answer struct {
	Text      string
	Sources   []tools.Source
	SessionID string
}

// Sessions is the conversation-memory contract the assistant needs.
type Sessions interface {
	NewSessionID() string
	History(id string) (string, bool)
	AddExchange(id, userMessage, assistantMessage string)
}

// AnswerGenerator produces an answer from a query and formatted history.
type AnswerGenerator interface {
	Generate(ctx context.Context, query, history string) (string, []tools.Source, error)
}

// Assistant ties the generator to session memory. A query with an empty
// session ID starts a new session; the returned Answer always carries
// the session ID to continue with.
type Assistant struct {
	generator AnswerGenerator
	sessions  Sessions
	logger    *slog.Logger
}

// New creates an Assistant.
func New(generator AnswerGenerator, sessions Sessions, logger *slog.Logger) (*Assistant, error) {
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		generator: generator,
		sessions:  sessions,
		logger:    logger,
	}, nil
}

// Query answers one user message. The exchange is recorded in session
// history only after a successful generation, so failed turns do not
// pollute the conversation context.
func (a *Assistant) Query(ctx context.Context, query, sessionID string) (Answer, error) {
	if sessionID == "" {
		sessionID = a.sessions.NewSessionID()
	}

	history, _ := a.sessions.History(sessionID)

	text, sources, err := a.generator.Generate(ctx, query, history)
	if err != nil {
		return Answer{}, err
	}

	if strings.TrimSpace(text) == "" {
		a.logger.Warn("model produced empty answer", "session_id", sessionID)
		text = FallbackResponse
	}

	a.sessions.AddExchange(sessionID, query, text)

	return Answer{
		Text:      text,
		Sources:   sources,
		SessionID: sessionID,
	}, nil
}
