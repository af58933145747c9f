// Package session keeps short-lived, in-memory conversation history.
//
// Each session holds a bounded FIFO of user/assistant message pairs. The
// bound keeps prompt sizes predictable: with maxExchanges exchanges kept,
// at most 2*maxExchanges individual messages survive per session. State
// lives only in process memory; a restart clears all sessions, which is
// acceptable for chat context.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// message is a single turn in a conversation.
type message struct {
	role    string // "User" or "Assistant"
	content string
}

// Store manages conversation history for all active sessions.
// Safe for concurrent use by multiple goroutines.
type Store struct {
	mu           sync.RWMutex
	sessions     map[string][]message
	maxExchanges int
}

// NewStore creates a session store keeping at most maxExchanges
// user/assistant pairs per session.
func NewStore(maxExchanges int) *Store {
	return &Store{
		sessions:     make(map[string][]message),
		maxExchanges: maxExchanges,
	}
}

// NewSessionID creates a fresh session identifier. The session itself is
// created lazily on the first AddExchange.
func (s *Store) NewSessionID() string {
	return uuid.NewString()
}

// AddExchange appends a completed user/assistant exchange to the session,
// evicting the oldest messages once the bound is exceeded.
func (s *Store) AddExchange(id, userMessage, assistantMessage string) {
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := append(s.sessions[id],
		message{role: "User", content: userMessage},
		message{role: "Assistant", content: assistantMessage},
	)
	if limit := 2 * s.maxExchanges; len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	s.sessions[id] = msgs
}

// History returns the formatted conversation history for a session and
// whether the session has any. The format is one "Role: content" line
// per message, oldest first.
func (s *Store) History(id string) (string, bool) {
	if id == "" {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs, ok := s.sessions[id]
	if !ok || len(msgs) == 0 {
		return "", false
	}

	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = fmt.Sprintf("%s: %s", m.role, m.content)
	}
	return strings.Join(lines, "\n"), true
}

// Clear removes all history for a session.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of sessions currently tracked.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
