package provider

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m4xw311/palaver/errors"
	"github.com/m4xw311/palaver/memory"
)

const anthropicMaxTokens = 4096

// Anthropic talks to the Anthropic Messages API.
type Anthropic struct {
	client      *anthropic.Client
	model       string
	temperature float64
}

// NewAnthropic creates an Anthropic provider. The API key is mandatory.
func NewAnthropic(model, apiKey string, temperature float64) (*Anthropic, error) {
	if apiKey == "" {
		return nil, errors.Tagf(errors.ErrConfiguration, "ANTHROPIC_API_KEY not set")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Anthropic{client: &client, model: model, temperature: temperature}, nil
}

func (a *Anthropic) Generate(ctx context.Context, messages []memory.ContextMessage) (string, error) {
	resp, err := a.client.Messages.New(ctx, a.params(messages))
	if err != nil {
		return "", errors.Wrapf(err, "anthropic request failed")
	}

	var text string
	for _, content := range resp.Content {
		if block, ok := content.AsAny().(anthropic.TextBlock); ok {
			text += block.Text
		}
	}
	return text, nil
}

func (a *Anthropic) StreamGenerate(ctx context.Context, messages []memory.ContextMessage) (<-chan StreamEvent, error) {
	stream := a.client.Messages.NewStreaming(ctx, a.params(messages))

	out := make(chan StreamEvent)
	go func() {
		defer close(out)
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			deltaEvent, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			if delta, ok := deltaEvent.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				if !emit(ctx, out, StreamEvent{Text: delta.Text}) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			emit(ctx, out, StreamEvent{Err: errors.Wrapf(err, "anthropic stream failed")})
		}
	}()
	return out, nil
}

func (a *Anthropic) params(messages []memory.ContextMessage) anthropic.MessageNewParams {
	anthropicMessages, systemPrompt := convertMessagesToAnthropic(messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: anthropicMaxTokens,
		Messages:  anthropicMessages,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	if a.temperature > 0 {
		params.Temperature = anthropic.Float(a.temperature)
	}
	return params
}

// convertMessagesToAnthropic maps the transcript onto Anthropic's format.
// System messages become the system prompt (the last one wins); the rest are
// plain text turns.
func convertMessagesToAnthropic(messages []memory.ContextMessage) ([]anthropic.MessageParam, string) {
	var out []anthropic.MessageParam
	var systemPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case memory.RoleSystem:
			systemPrompt = msg.Content
		case memory.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out, systemPrompt
}

// IsAvailable reports whether an API key is configured.
func (a *Anthropic) IsAvailable(ctx context.Context) bool {
	return a.client != nil
}

func (a *Anthropic) Info() map[string]string {
	return map[string]string{
		"provider": NameAnthropic,
		"model":    a.model,
	}
}
