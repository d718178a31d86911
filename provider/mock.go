package provider

import (
	"context"
	"fmt"

	"github.com/m4xw311/palaver/memory"
)

// Mock is a scripted in-memory provider for tests and offline development.
// When Reply is empty it parrots the last message it received.
type Mock struct {
	Reply     string
	Fragments []string
	// Fail makes Generate and StreamGenerate fail before producing output.
	Fail error
	// StreamErr is surfaced after all Fragments have been delivered.
	StreamErr error

	// Calls records every context this provider was asked to generate from.
	Calls [][]memory.ContextMessage
}

func (m *Mock) Generate(ctx context.Context, messages []memory.ContextMessage) (string, error) {
	m.Calls = append(m.Calls, messages)
	if m.Fail != nil {
		return "", m.Fail
	}
	return m.reply(messages), nil
}

func (m *Mock) StreamGenerate(ctx context.Context, messages []memory.ContextMessage) (<-chan StreamEvent, error) {
	m.Calls = append(m.Calls, messages)
	if m.Fail != nil {
		return nil, m.Fail
	}

	fragments := m.Fragments
	if len(fragments) == 0 {
		fragments = []string{m.reply(messages)}
	}

	out := make(chan StreamEvent)
	go func() {
		defer close(out)
		for _, fragment := range fragments {
			if !emit(ctx, out, StreamEvent{Text: fragment}) {
				return
			}
		}
		if m.StreamErr != nil {
			emit(ctx, out, StreamEvent{Err: m.StreamErr})
		}
	}()
	return out, nil
}

func (m *Mock) IsAvailable(ctx context.Context) bool { return true }

func (m *Mock) Info() map[string]string {
	return map[string]string{"provider": "mock"}
}

func (m *Mock) reply(messages []memory.ContextMessage) string {
	if m.Reply != "" {
		return m.Reply
	}
	if len(messages) == 0 {
		return "I am a mock provider."
	}
	return fmt.Sprintf("I am a mock provider. You said: '%s'.", messages[len(messages)-1].Content)
}
