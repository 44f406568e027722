package agent

import (
	"context"
	"fmt"
	"strings"

	"charm.land/fantasy"

	"github.com/dotcommander/awsknow/internal/errs"
	"github.com/dotcommander/awsknow/internal/log"
	"github.com/dotcommander/awsknow/internal/mcp"
)

// DefaultMaxSteps bounds the tool loop of a single run.
const DefaultMaxSteps = 20

// Model streams one model step.
type Model interface {
	Stream(ctx context.Context, call fantasy.Call) (fantasy.StreamResponse, error)
}

// Agent answers one prompt with a model and a toolset. It is built per
// request and must not be shared.
type Agent struct {
	model       Model
	toolset     mcp.Toolset
	system      string
	maxSteps    int
	maxTokens   *int64
	temperature *float64
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxSteps caps the number of model steps.
func WithMaxSteps(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

// WithMaxTokens caps the answer length. Zero keeps the provider default.
func WithMaxTokens(n int64) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxTokens = &n
		}
	}
}

// WithTemperature sets the sampling temperature. Zero keeps the provider
// default.
func WithTemperature(t float64) Option {
	return func(a *Agent) {
		if t > 0 {
			a.temperature = &t
		}
	}
}

// New creates an agent bound to the shared model and toolset.
func New(model Model, toolset mcp.Toolset, systemPrompt string, opts ...Option) *Agent {
	a := &Agent{
		model:    model,
		toolset:  toolset,
		system:   systemPrompt,
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Tools returns the toolset snapshot offered to the model.
func (a *Agent) Tools() mcp.Toolset { return a.toolset }

// Run sends prompt to the model, executing tool calls until the model
// answers with text only.
func (a *Agent) Run(ctx context.Context, prompt string) (string, error) {
	messages := make(fantasy.Prompt, 0, 8)
	if a.system != "" {
		messages = append(messages, textMessage(fantasy.MessageRoleSystem, a.system))
	}
	messages = append(messages, textMessage(fantasy.MessageRoleUser, prompt))

	tools := fromMCPTools(a.toolset.Tools)
	for range a.maxSteps {
		st, err := a.step(ctx, messages, tools)
		if err != nil {
			return "", err
		}
		for _, w := range st.warnings {
			log.Warnf("model %s: %s", modelName(a.model), w)
		}
		if len(st.calls) == 0 {
			return st.text.String(), nil
		}
		messages = append(messages, st.assistantMessage(), a.callTools(ctx, st.calls))
	}
	return "", errs.Remote(
		fmt.Errorf("model did not produce an answer within %d steps", a.maxSteps),
		"Tool loop did not finish.",
	)
}

func (a *Agent) step(ctx context.Context, messages fantasy.Prompt, tools []fantasy.Tool) (*step, error) {
	call := fantasy.Call{
		Prompt:          messages,
		MaxOutputTokens: a.maxTokens,
		Temperature:     a.temperature,
		Tools:           tools,
		ToolChoice:      toolChoiceFor(tools),
		ProviderOptions: fantasy.ProviderOptions{},
	}

	seq, err := a.model.Stream(ctx, call)
	if err != nil {
		return nil, describeError(err, modelName(a.model))
	}

	st := newStep()
	for part := range seq {
		st.consume(part)
		if st.err != nil {
			break
		}
	}
	if st.err != nil {
		return nil, describeError(st.err, modelName(a.model))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	return st, nil
}

func (a *Agent) callTools(ctx context.Context, calls []toolCall) fantasy.Message {
	parts := make([]fantasy.MessagePart, 0, len(calls))
	for _, call := range calls {
		var output fantasy.ToolResultOutputContent
		out, err := a.invoke(ctx, call)
		if err != nil {
			log.Debugf("tool %s failed: %v", call.name, err)
			output = fantasy.ToolResultOutputContentError{Error: err}
		} else {
			output = fantasy.ToolResultOutputContentText{Text: out}
		}
		parts = append(parts, fantasy.ToolResultPart{
			ToolCallID: call.id,
			Output:     output,
		})
	}
	return fantasy.Message{Role: fantasy.MessageRoleTool, Content: parts}
}

func (a *Agent) invoke(ctx context.Context, call toolCall) (string, error) {
	if a.toolset.Caller == nil {
		return "", fmt.Errorf("tool %q is not available", call.name)
	}
	return a.toolset.Caller.CallTool(ctx, call.name, []byte(call.input))
}

type toolCall struct {
	id    string
	name  string
	input string
}

// step accumulates the stream parts of one model step.
type step struct {
	text     strings.Builder
	calls    []toolCall
	seen     map[string]struct{}
	warnings []string
	warnSeen map[string]struct{}
	err      error
}

func newStep() *step {
	return &step{seen: map[string]struct{}{}, warnSeen: map[string]struct{}{}}
}

func (s *step) consume(part fantasy.StreamPart) {
	switch part.Type {
	case fantasy.StreamPartTypeTextDelta:
		s.text.WriteString(part.Delta)
	case fantasy.StreamPartTypeToolCall:
		if part.ProviderExecuted {
			return
		}
		if _, exists := s.seen[part.ID]; exists {
			return
		}
		s.seen[part.ID] = struct{}{}
		s.calls = append(s.calls, toolCall{id: part.ID, name: part.ToolCallName, input: part.ToolCallInput})
	case fantasy.StreamPartTypeError:
		s.err = part.Error
		if s.err == nil {
			s.err = fmt.Errorf("model stream failed")
		}
	case fantasy.StreamPartTypeWarnings:
		for _, warning := range part.Warnings {
			text := strings.TrimSpace(warning.Message)
			if text == "" {
				text = strings.TrimSpace(warning.Details)
			}
			if text == "" && warning.Setting != "" {
				text = fmt.Sprintf("unsupported setting: %s", warning.Setting)
			}
			if text == "" {
				text = "provider warning"
			}
			key := string(warning.Type) + ":" + text
			if _, exists := s.warnSeen[key]; exists {
				continue
			}
			s.warnSeen[key] = struct{}{}
			s.warnings = append(s.warnings, text)
		}
	default:
		return
	}
}

func (s *step) assistantMessage() fantasy.Message {
	parts := make([]fantasy.MessagePart, 0, 1+len(s.calls))
	if txt := s.text.String(); txt != "" {
		parts = append(parts, fantasy.TextPart{Text: txt})
	}
	for _, call := range s.calls {
		parts = append(parts, fantasy.ToolCallPart{
			ToolCallID:       call.id,
			ToolName:         call.name,
			Input:            call.input,
			ProviderExecuted: false,
		})
	}
	return fantasy.Message{Role: fantasy.MessageRoleAssistant, Content: parts}
}

func modelName(m Model) string {
	if s, ok := m.(fmt.Stringer); ok {
		return s.String()
	}
	return "model"
}
