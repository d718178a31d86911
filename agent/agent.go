package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/m4xw311/palaver/errors"
	"github.com/m4xw311/palaver/memory"
	"github.com/m4xw311/palaver/provider"
	"github.com/m4xw311/palaver/tools"
)

const basePrompt = "You are a helpful AI assistant."

// Agent composes a conversation transcript, a completion provider and a tool
// roster into a single converse operation. One Agent is one conversation; it
// has a single owner and is not safe for concurrent use.
type Agent struct {
	providerName string
	modelName    string
	provider     provider.Provider
	tools        []tools.Tool
	interpreter  *tools.Interpreter
	memory       *memory.Conversation
	systemPrompt string
}

// Options configures agent construction.
type Options struct {
	// Provider is the provider identity resolved through the factory.
	Provider string
	Model    string
	// Tools is the fixed roster; nil disables tool handling entirely.
	Tools []tools.Tool
	// SystemPrompt overrides the generated default when non-empty.
	SystemPrompt string
	// MaxHistory caps the transcript at twice its value.
	MaxHistory int
	Settings   provider.Settings
}

// New resolves the provider identity and builds an agent around it. An
// unrecognized identity or missing credentials fail construction.
func New(ctx context.Context, opts Options) (*Agent, error) {
	p, err := provider.New(ctx, opts.Provider, opts.Model, opts.Settings)
	if err != nil {
		return nil, err
	}
	return NewWithProvider(p, opts), nil
}

// NewWithProvider wires an agent around an already-constructed provider
// handle. The system prompt is seeded as the first message.
func NewWithProvider(p provider.Provider, opts Options) *Agent {
	a := &Agent{
		providerName: opts.Provider,
		modelName:    opts.Model,
		provider:     p,
		tools:        opts.Tools,
		interpreter:  tools.NewInterpreter(opts.Tools),
		memory:       memory.New(opts.MaxHistory),
		systemPrompt: opts.SystemPrompt,
	}
	if a.systemPrompt == "" {
		a.systemPrompt = defaultSystemPrompt(opts.Tools)
	}
	a.memory.Add(memory.RoleSystem, a.systemPrompt)
	return a
}

// defaultSystemPrompt builds the base prompt plus, when tools are configured,
// the enumerated roster and the literal tool-call convention instruction.
func defaultSystemPrompt(roster []tools.Tool) string {
	if len(roster) == 0 {
		return basePrompt
	}
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\nYou have access to the following tools:\n")
	for i, t := range roster {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s: %s", t.Name(), t.Description())
	}
	b.WriteString("\n\nWhen you need to use a tool, respond with: TOOL_CALL: {tool_name}({parameters})")
	return b.String()
}

// Chat sends a user message and returns the full response. Tool calls
// embedded in the generated text are executed and their results appended to
// the visible response before it is committed as the assistant message.
func (a *Agent) Chat(ctx context.Context, message string) (string, error) {
	a.memory.Add(memory.RoleUser, message)

	response, err := a.provider.Generate(ctx, a.memory.Context())
	if err != nil {
		return "", errors.Wrapf(err, "generation failed")
	}

	if len(a.tools) > 0 && strings.Contains(response, tools.CallMarker) {
		response = a.interpreter.Process(ctx, response)
	}

	a.memory.Add(memory.RoleAssistant, response)
	return response, nil
}

// StreamChat sends a user message and returns a finite channel of response
// fragments. Provider fragments are forwarded in arrival order; after the
// provider is exhausted, embedded tool calls are executed and their results
// delivered as one trailing fragment. The fully-augmented response is
// committed as the assistant message just before the channel closes, so a
// caller that stops pulling (or cancels the context) leaves the assistant
// turn uncommitted.
//
// Callers must drain the channel or cancel ctx; abandoning the channel with
// a live context blocks the producer on its next send.
func (a *Agent) StreamChat(ctx context.Context, message string) (<-chan provider.StreamEvent, error) {
	a.memory.Add(memory.RoleUser, message)

	fragments, err := a.provider.StreamGenerate(ctx, a.memory.Context())
	if err != nil {
		return nil, err
	}

	out := make(chan provider.StreamEvent)
	go func() {
		defer close(out)

		var full strings.Builder
		for ev := range fragments {
			if ev.Err != nil {
				forward(ctx, out, ev)
				return
			}
			full.WriteString(ev.Text)
			if !forward(ctx, out, ev) {
				return
			}
		}

		response := full.String()
		if len(a.tools) > 0 && strings.Contains(response, tools.CallMarker) {
			augmented := a.interpreter.Process(ctx, response)
			if trailer := augmented[len(response):]; trailer != "" {
				if !forward(ctx, out, provider.StreamEvent{Text: trailer}) {
					return
				}
			}
			response = augmented
		}
		a.memory.Add(memory.RoleAssistant, response)
	}()
	return out, nil
}

// ClearHistory wipes the transcript and re-seeds the system message.
func (a *Agent) ClearHistory() {
	a.memory.Clear()
	a.memory.Add(memory.RoleSystem, a.systemPrompt)
}

// SaveConversation writes the transcript to path.
func (a *Agent) SaveConversation(path string) error {
	return a.memory.Save(path)
}

// LoadConversation replaces the transcript from the file at path.
func (a *Agent) LoadConversation(path string) error {
	return a.memory.Load(path)
}

// Info returns a read-only snapshot describing the agent.
func (a *Agent) Info() map[string]any {
	names := make([]string, 0, len(a.tools))
	for _, t := range a.tools {
		names = append(names, t.Name())
	}
	return map[string]any{
		"provider":            a.providerName,
		"model":               a.modelName,
		"tools":               names,
		"conversation_length": a.memory.Len(),
		"provider_info":       a.provider.Info(),
	}
}

// SystemPrompt returns the prompt seeded as the first message.
func (a *Agent) SystemPrompt() string {
	return a.systemPrompt
}

// Messages returns a copy of the current transcript.
func (a *Agent) Messages() []memory.Message {
	return a.memory.Messages()
}

// IsAvailable reports whether the underlying provider considers itself
// reachable and configured.
func (a *Agent) IsAvailable(ctx context.Context) bool {
	return a.provider.IsAvailable(ctx)
}

func forward(ctx context.Context, out chan<- provider.StreamEvent, ev provider.StreamEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
