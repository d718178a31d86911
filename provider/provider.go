// Package provider defines the completion-provider capability and its
// concrete backends. A provider turns an ordered message list into generated
// text, either in one shot or as an incremental stream of fragments.
package provider

import (
	"context"

	"github.com/m4xw311/palaver/errors"
	"github.com/m4xw311/palaver/memory"
)

// Provider is the interface every text-generation backend implements.
type Provider interface {
	// Generate produces the full response for the given context.
	Generate(ctx context.Context, messages []memory.ContextMessage) (string, error)
	// StreamGenerate returns a finite channel of fragments in generation
	// order. A mid-stream failure is delivered as a final event with Err
	// set; it is never swallowed. The channel is always closed once
	// generation finishes or fails. Errors raised before any fragment is
	// produced are returned directly.
	StreamGenerate(ctx context.Context, messages []memory.ContextMessage) (<-chan StreamEvent, error)
	// IsAvailable reports, best effort, whether the backend is reachable
	// and configured.
	IsAvailable(ctx context.Context) bool
	// Info returns a read-only snapshot describing the backend.
	Info() map[string]string
}

// StreamEvent is one fragment of a streaming generation.
type StreamEvent struct {
	Text string
	Err  error
}

// Settings carries the endpoints and credentials the factory hands to each
// backend. Zero values fall back to backend defaults where one exists.
type Settings struct {
	OllamaBaseURL     string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	HuggingFaceAPIKey string
	AnthropicAPIKey   string
	GeminiAPIKey      string
	Temperature       float64
}

// Known provider identities.
const (
	NameOllama      = "ollama"
	NameOpenAI      = "openai"
	NameHuggingFace = "huggingface"
	NameAnthropic   = "anthropic"
	NameGemini      = "gemini"
	NameBedrock     = "bedrock"
)

// Names lists the provider identities the factory recognizes.
func Names() []string {
	return []string{NameOllama, NameOpenAI, NameHuggingFace, NameAnthropic, NameGemini, NameBedrock}
}

// New resolves a provider identity to a concrete handle. An unrecognized
// identity fails with ErrUnknownProvider; a recognized identity with missing
// credentials fails with ErrConfiguration.
func New(ctx context.Context, name, model string, s Settings) (Provider, error) {
	switch name {
	case NameOllama:
		return NewOllama(model, s.OllamaBaseURL, s.Temperature), nil
	case NameOpenAI:
		return NewOpenAI(model, s.OpenAIAPIKey, s.OpenAIBaseURL, s.Temperature)
	case NameHuggingFace:
		return NewHuggingFace(model, s.HuggingFaceAPIKey, s.Temperature)
	case NameAnthropic:
		return NewAnthropic(model, s.AnthropicAPIKey, s.Temperature)
	case NameGemini:
		return NewGemini(ctx, model, s.GeminiAPIKey, s.Temperature)
	case NameBedrock:
		return NewBedrock(ctx, model)
	default:
		return nil, errors.Tagf(errors.ErrUnknownProvider, "unknown provider: %s", name)
	}
}

// emit delivers ev unless the consumer has gone away. It reports whether the
// producer should keep going.
func emit(ctx context.Context, out chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
