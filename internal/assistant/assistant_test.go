package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lectern-app/lectern/internal/log"
	"github.com/lectern-app/lectern/internal/session"
	"github.com/lectern-app/lectern/internal/tools"
)

// fakeGenerator returns scripted answers and records the history it saw.
type fakeGenerator struct {
	text    string
	sources []tools.Source
	err     error

	histories []string
}

func (f *fakeGenerator) Generate(_ context.Context, _, history string) (string, []tools.Source, error) {
	f.histories = append(f.histories, history)
	return f.text, f.sources, f.err
}

func newAssistant(t *testing.T, gen *fakeGenerator) (*Assistant, *session.Store) {
	t.Helper()
	sessions := session.NewStore(2)
	a, err := New(gen, sessions, log.NewNop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return a, sessions
}

func TestQuery_NewSession(t *testing.T) {
	gen := &fakeGenerator{text: "answer", sources: []tools.Source{{Text: "src"}}}
	a, _ := newAssistant(t, gen)

	ans, err := a.Query(context.Background(), "question", "")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if ans.SessionID == "" {
		t.Error("expected a fresh session id")
	}
	if ans.Text != "answer" {
		t.Errorf("Text = %q", ans.Text)
	}
	if len(ans.Sources) != 1 {
		t.Errorf("got %d sources, want 1", len(ans.Sources))
	}
}

func TestQuery_HistoryFlowsAcrossTurns(t *testing.T) {
	gen := &fakeGenerator{text: "first answer"}
	a, _ := newAssistant(t, gen)

	ans, err := a.Query(context.Background(), "first question", "")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if gen.histories[0] != "" {
		t.Errorf("first turn saw history %q", gen.histories[0])
	}

	gen.text = "second answer"
	if _, err := a.Query(context.Background(), "second question", ans.SessionID); err != nil {
		t.Fatalf("Query() error: %v", err)
	}

	want := "User: first question\nAssistant: first answer"
	if gen.histories[1] != want {
		t.Errorf("second turn history =\n%q\nwant\n%q", gen.histories[1], want)
	}
}

func TestQuery_EmptyAnswerFallback(t *testing.T) {
	gen := &fakeGenerator{text: "   "}
	a, sessions := newAssistant(t, gen)

	ans, err := a.Query(context.Background(), "question", "")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if ans.Text != FallbackResponse {
		t.Errorf("Text = %q, want fallback", ans.Text)
	}

	// The fallback, not the blank answer, is what history records.
	history, ok := sessions.History(ans.SessionID)
	if !ok || !strings.Contains(history, FallbackResponse) {
		t.Errorf("history = %q", history)
	}
}

func TestQuery_GeneratorErrorLeavesNoHistory(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	a, sessions := newAssistant(t, gen)

	sid := sessions.NewSessionID()
	if _, err := a.Query(context.Background(), "question", sid); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := sessions.History(sid); ok {
		t.Error("failed turn was recorded in history")
	}
}
