package provider

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	"github.com/m4xw311/palaver/errors"
	"github.com/m4xw311/palaver/memory"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Gemini talks to the Google Gemini API.
type Gemini struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

// NewGemini creates a Gemini provider. The API key is mandatory.
func NewGemini(ctx context.Context, modelName, apiKey string, temperature float64) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.Tagf(errors.ErrConfiguration, "GEMINI_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create genai client")
	}

	model := client.GenerativeModel(modelName)
	if temperature > 0 {
		model.SetTemperature(float32(temperature))
	}

	return &Gemini{client: client, model: model, modelName: modelName}, nil
}

func (g *Gemini) Generate(ctx context.Context, messages []memory.ContextMessage) (string, error) {
	chat, last, err := g.prepare(messages)
	if err != nil {
		return "", err
	}
	resp, err := chat.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", errors.Wrapf(err, "gemini request failed")
	}
	return geminiText(resp), nil
}

func (g *Gemini) StreamGenerate(ctx context.Context, messages []memory.ContextMessage) (<-chan StreamEvent, error) {
	chat, last, err := g.prepare(messages)
	if err != nil {
		return nil, err
	}
	iter := chat.SendMessageStream(ctx, last.Parts...)

	out := make(chan StreamEvent)
	go func() {
		defer close(out)
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				emit(ctx, out, StreamEvent{Err: errors.Wrapf(err, "gemini stream failed")})
				return
			}
			if text := geminiText(resp); text != "" {
				if !emit(ctx, out, StreamEvent{Text: text}) {
					return
				}
			}
		}
	}()
	return out, nil
}

// prepare splits the transcript into chat history and the final prompt.
// System messages become the model's system instruction.
func (g *Gemini) prepare(messages []memory.ContextMessage) (*genai.ChatSession, *genai.Content, error) {
	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case memory.RoleSystem:
			g.model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(msg.Content)},
			}
		case memory.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}
	if len(contents) == 0 {
		return nil, nil, errors.New("no messages to send to gemini")
	}

	chat := g.model.StartChat()
	chat.History = contents[:len(contents)-1]
	return chat, contents[len(contents)-1], nil
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	return text
}

// IsAvailable reports whether the client was configured.
func (g *Gemini) IsAvailable(ctx context.Context) bool {
	return g.client != nil
}

func (g *Gemini) Info() map[string]string {
	return map[string]string{
		"provider": NameGemini,
		"model":    g.modelName,
	}
}
