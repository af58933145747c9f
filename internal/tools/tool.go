// Package tools defines the retrieval tools the assistant can call and
// the registry that dispatches tool requests to them.
//
// Tools are registered with Genkit so the model sees their schemas, but
// execution goes through Registry.Dispatch: the chat loop asks the model
// for tool requests, runs them itself, and feeds the results back. Each
// execution returns a Result carrying both the text for the model and
// the source citations for the UI, so concurrent conversations never
// share citation state.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

var (
	// ErrUnknownTool is returned when a dispatch names an unregistered tool.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrDuplicateTool is returned when a tool name is registered twice.
	ErrDuplicateTool = errors.New("duplicate tool")
)

// Source is one citation backing a tool result.
type Source struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// Result is the outcome of a single tool execution. Text goes back to the
// model; Sources go to the caller for display.
type Result struct {
	Text    string
	Sources []Source
}

// Tool is a retrieval tool the assistant can invoke.
type Tool interface {
	// Name returns the tool's unique identifier.
	Name() string

	// Register defines the tool with Genkit so the model can see its
	// schema, and returns the reference to offer in generate calls.
	Register(g *genkit.Genkit) ai.ToolRef

	// Execute runs the tool. input is the raw tool-request input as
	// provided by the model, typically a map[string]any.
	Execute(ctx context.Context, input any) (Result, error)
}

// Registry holds the registered tools and their Genkit references.
// Registration happens once at startup; afterwards the registry is
// read-only and safe for concurrent use.
type Registry struct {
	g     *genkit.Genkit
	tools map[string]Tool
	refs  []ai.ToolRef
}

// NewRegistry creates an empty registry bound to a Genkit instance.
func NewRegistry(g *genkit.Genkit) *Registry {
	return &Registry{
		g:     g,
		tools: make(map[string]Tool),
	}
}

// Register adds a tool and defines it with Genkit.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
	}
	r.tools[name] = t
	r.refs = append(r.refs, t.Register(r.g))
	return nil
}

// Refs returns the tool references to offer the model, in registration order.
func (r *Registry) Refs() []ai.ToolRef {
	return r.refs
}

// Dispatch executes the named tool with the given input.
func (r *Registry) Dispatch(ctx context.Context, name string, input any) (Result, error) {
	t, ok := r.tools[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t.Execute(ctx, input)
}

// decodeInput converts a raw tool-request input into a typed value. The
// model delivers inputs as map[string]any, so conversion goes through a
// JSON round trip.
func decodeInput[T any](input any) (T, error) {
	var typed T
	if direct, ok := input.(T); ok {
		return direct, nil
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return typed, fmt.Errorf("marshaling tool input: %w", err)
	}
	if err := json.Unmarshal(raw, &typed); err != nil {
		return typed, fmt.Errorf("parsing tool input: %w", err)
	}
	return typed, nil
}
