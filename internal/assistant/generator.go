// Package assistant answers user questions about course materials.
//
// Generator drives the tool-calling protocol with the model: a first
// call offers the retrieval tools and asks for tool requests back
// instead of auto-running them, the requests are dispatched locally,
// and a second call with the tool results but no tools produces the
// final answer. A query therefore costs at most two model calls, and
// the model gets exactly one retrieval round.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/lectern-app/lectern/internal/tools"
)

// systemPromptBase instructs the model on when to use which tool and how
// to shape answers.
const systemPromptBase = `You are an AI assistant specialized in course materials and educational content, with access to tools for course information.

Tool Usage:
- search_course_content: use for questions about specific course content or detailed educational materials
- get_course_outline: use for questions about course structure, lesson lists, or what a course covers
- One tool use per query maximum
- Synthesize tool results into accurate, fact-based responses
- If a tool yields no results, state this clearly without offering alternatives

Response Protocol:
- General knowledge questions: answer using existing knowledge without tools
- Course-specific questions: use the appropriate tool first, then answer
- No meta-commentary: provide direct answers only, without reasoning process, tool explanations, or question-type analysis

All responses must be:
1. Brief, concise and focused - get to the point quickly
2. Educational - maintain instructional value
3. Clear - use accessible language
4. Example-supported - include relevant examples when they aid understanding
Provide only the direct answer to what was asked.`

// Dispatcher runs tool requests on behalf of the generator.
type Dispatcher interface {
	Refs() []ai.ToolRef
	Dispatch(ctx context.Context, name string, input any) (tools.Result, error)
}

// Config contains the required parameters for a Generator.
type Config struct {
	Genkit    *genkit.Genkit
	Tools     Dispatcher
	Logger    *slog.Logger
	ModelName string // provider-qualified, e.g. "googleai/gemini-2.5-flash"

	// ModelConfig is the provider-specific generation config passed
	// through to the model, e.g. *genai.GenerateContentConfig for
	// Gemini. nil means provider defaults.
	ModelConfig any

	Retry       RetryConfig   // zero value uses defaults
	RateLimiter *rate.Limiter // nil disables proactive rate limiting
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Tools == nil {
		return errors.New("tool dispatcher is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Generator produces answers through the two-call tool protocol.
// All configuration is captured at construction; Generator is safe for
// concurrent use.
type Generator struct {
	g           *genkit.Genkit
	tools       Dispatcher
	logger      *slog.Logger
	modelName   string
	modelConfig any
	retry       RetryConfig
	limiter     *rate.Limiter
}

// NewGenerator creates a Generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	return &Generator{
		g:           cfg.Genkit,
		tools:       cfg.Tools,
		logger:      logger,
		modelName:   cfg.ModelName,
		modelConfig: cfg.ModelConfig,
		retry:       retry,
		limiter:     cfg.RateLimiter,
	}, nil
}

// systemPrompt embeds prior conversation into the base instructions.
func systemPrompt(history string) string {
	if history == "" {
		return systemPromptBase
	}
	return systemPromptBase + "\n\nPrevious conversation:\n" + history
}

// Generate answers a query, optionally informed by formatted session
// history. It returns the answer text together with the citations from
// any tool executions this call made.
func (m *Generator) Generate(ctx context.Context, query, history string) (string, []tools.Source, error) {
	base := []ai.GenerateOption{
		ai.WithModelName(m.modelName),
	}
	if m.modelConfig != nil {
		base = append(base, ai.WithConfig(m.modelConfig))
	}

	first := append([]ai.GenerateOption{}, base...)
	first = append(first,
		ai.WithSystem(systemPrompt(history)),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(query))),
		ai.WithTools(m.tools.Refs()...),
		ai.WithReturnToolRequests(true),
	)

	resp, err := m.generateWithRetry(ctx, first)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	requests := resp.ToolRequests()
	if len(requests) == 0 {
		return resp.Text(), nil, nil
	}

	toolMsg, sources, err := m.runTools(ctx, requests)
	if err != nil {
		return "", nil, err
	}

	// Follow-up call: tool results go back as a tool-role message, and
	// no tools are offered, so the model must answer in text.
	followUp := append([]ai.GenerateOption{}, base...)
	followUp = append(followUp,
		ai.WithMessages(append(resp.History(), toolMsg)...),
	)

	final, err := m.generateWithRetry(ctx, followUp)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(final.ToolRequests()) > 0 {
		return "", nil, fmt.Errorf("%w: model requested tools on the follow-up call", ErrProtocol)
	}

	return final.Text(), sources, nil
}

// runTools dispatches every tool request from the first call and builds
// the tool-role message for the follow-up, preserving request order in
// both the outputs and the collected citations.
func (m *Generator) runTools(ctx context.Context, requests []*ai.ToolRequest) (*ai.Message, []tools.Source, error) {
	parts := make([]*ai.Part, 0, len(requests))
	var sources []tools.Source

	for _, req := range requests {
		if req.Ref == "" {
			return nil, nil, fmt.Errorf("%w: tool request for %q has no correlation ref", ErrProtocol, req.Name)
		}

		result, err := m.tools.Dispatch(ctx, req.Name, req.Input)
		if err != nil {
			return nil, nil, fmt.Errorf("dispatching tool %q: %w", req.Name, err)
		}

		m.logger.Debug("tool executed",
			"tool", req.Name,
			"sources", len(result.Sources))

		sources = append(sources, result.Sources...)
		parts = append(parts, ai.NewToolResponsePart(&ai.ToolResponse{
			Name:   req.Name,
			Ref:    req.Ref,
			Output: result.Text,
		}))
	}

	return ai.NewMessage(ai.RoleTool, nil, parts...), sources, nil
}
