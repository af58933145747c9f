package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/lectern-app/lectern/internal/log"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	g := genkit.Init(context.Background())
	return NewRegistry(g)
}

func TestRegistry_RegisterAndDispatch(t *testing.T) {
	r := newTestRegistry(t)

	search, err := NewSearch(&fakeSearcher{}, log.NewNop())
	if err != nil {
		t.Fatalf("NewSearch() error: %v", err)
	}
	if err := r.Register(search); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	outline, err := NewOutline(&fakeOutliner{}, log.NewNop())
	if err != nil {
		t.Fatalf("NewOutline() error: %v", err)
	}
	if err := r.Register(outline); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if got := len(r.Refs()); got != 2 {
		t.Errorf("Refs() returned %d tools, want 2", got)
	}

	res, err := r.Dispatch(context.Background(), SearchToolName,
		map[string]any{"query": "anything"})
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if res.Text != "No relevant content found" {
		t.Errorf("Dispatch() Text = %q", res.Text)
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Dispatch(context.Background(), "nope", nil)
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("expected ErrUnknownTool, got %v", err)
	}
}

func TestRegistry_DuplicateTool(t *testing.T) {
	r := newTestRegistry(t)

	search, err := NewSearch(&fakeSearcher{}, log.NewNop())
	if err != nil {
		t.Fatalf("NewSearch() error: %v", err)
	}
	if err := r.Register(search); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	// Registering the same name twice must fail before touching Genkit.
	dup := &renamedTool{inner: search}
	if err := r.Register(dup); !errors.Is(err, ErrDuplicateTool) {
		t.Errorf("expected ErrDuplicateTool, got %v", err)
	}
}

// renamedTool wraps a tool but keeps its original name, forcing a clash.
type renamedTool struct {
	inner Tool
}

func (d *renamedTool) Name() string                          { return d.inner.Name() }
func (d *renamedTool) Register(g *genkit.Genkit) ai.ToolRef  { return d.inner.Register(g) }
func (d *renamedTool) Execute(ctx context.Context, input any) (Result, error) {
	return d.inner.Execute(ctx, input)
}
