package provider

import (
	"context"

	"github.com/m4xw311/palaver/errors"
	"github.com/m4xw311/palaver/memory"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAI talks to the OpenAI Chat Completions API, or any compatible server
// when a custom base URL is configured.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float64
	baseURL     string
}

// NewOpenAI creates an OpenAI provider. The API key is mandatory; baseURL is
// optional and points the client at a compatible endpoint.
func NewOpenAI(model, apiKey, baseURL string, temperature float64) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.Tagf(errors.ErrConfiguration, "OPENAI_API_KEY not set")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	// The v2 SDK returns the client by value; the handle keeps a pointer.
	c := openai.NewClient(opts...)
	return &OpenAI{client: &c, model: model, temperature: temperature, baseURL: baseURL}, nil
}

func (o *OpenAI) Generate(ctx context.Context, messages []memory.ContextMessage) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, o.params(messages))
	if err != nil {
		return "", errors.Wrapf(err, "openai request failed")
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAI) StreamGenerate(ctx context.Context, messages []memory.ContextMessage) (<-chan StreamEvent, error) {
	stream := o.client.Chat.Completions.NewStreaming(ctx, o.params(messages))

	out := make(chan StreamEvent)
	go func() {
		defer close(out)
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				if !emit(ctx, out, StreamEvent{Text: delta}) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			emit(ctx, out, StreamEvent{Err: errors.Wrapf(err, "openai stream failed")})
		}
	}()
	return out, nil
}

func (o *OpenAI) params(messages []memory.ContextMessage) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: convertMessagesToOpenAI(messages),
	}
	if o.temperature > 0 {
		params.Temperature = openai.Float(o.temperature)
	}
	return params
}

func convertMessagesToOpenAI(messages []memory.ContextMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case memory.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case memory.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// IsAvailable reports whether an API key is configured.
func (o *OpenAI) IsAvailable(ctx context.Context) bool {
	return o.client != nil
}

func (o *OpenAI) Info() map[string]string {
	info := map[string]string{
		"provider": NameOpenAI,
		"model":    o.model,
	}
	if o.baseURL != "" {
		info["base_url"] = o.baseURL
	}
	return info
}
