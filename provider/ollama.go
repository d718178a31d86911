package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/m4xw311/palaver/errors"
	"github.com/m4xw311/palaver/memory"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// Ollama talks to a local Ollama server over its native chat API.
type Ollama struct {
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
}

// NewOllama creates an Ollama provider. An empty baseURL falls back to the
// local default.
func NewOllama(model, baseURL string, temperature float64) *Ollama {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &Ollama{
		baseURL:     baseURL,
		model:       model,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
	}
}

type ollamaChatRequest struct {
	Model    string                  `json:"model"`
	Messages []memory.ContextMessage `json:"messages"`
	Stream   bool                    `json:"stream"`
	Options  ollamaOptions           `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

func (o *Ollama) Generate(ctx context.Context, messages []memory.ContextMessage) (string, error) {
	resp, err := o.chatRequest(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "failed reading ollama response")
	}
	var parsed ollamaChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.New("failed to parse ollama response: %s", truncateBody(body))
	}
	if parsed.Error != "" {
		return "", errors.New("ollama error: %s", parsed.Error)
	}
	return parsed.Message.Content, nil
}

func (o *Ollama) StreamGenerate(ctx context.Context, messages []memory.ContextMessage) (<-chan StreamEvent, error) {
	resp, err := o.chatRequest(ctx, messages, true)
	if err != nil {
		return nil, err
	}

	out := make(chan StreamEvent)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		dec := json.NewDecoder(resp.Body)
		for {
			var chunk ollamaChatResponse
			if err := dec.Decode(&chunk); err != nil {
				if err == io.EOF {
					return
				}
				emit(ctx, out, StreamEvent{Err: errors.Wrapf(err, "ollama stream failed")})
				return
			}
			if chunk.Error != "" {
				emit(ctx, out, StreamEvent{Err: errors.New("ollama error: %s", chunk.Error)})
				return
			}
			if chunk.Message.Content != "" {
				if !emit(ctx, out, StreamEvent{Text: chunk.Message.Content}) {
					return
				}
			}
			if chunk.Done {
				return
			}
		}
	}()
	return out, nil
}

func (o *Ollama) chatRequest(ctx context.Context, messages []memory.ContextMessage, stream bool) (*http.Response, error) {
	payload, err := json.Marshal(ollamaChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   stream,
		Options:  ollamaOptions{Temperature: o.temperature},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal ollama request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create ollama request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "ollama request failed")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, errors.New("ollama non-success status=%d body=%s", resp.StatusCode, truncateBody(body))
	}
	return resp, nil
}

// IsAvailable pings the server's tag listing endpoint.
func (o *Ollama) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (o *Ollama) Info() map[string]string {
	return map[string]string{
		"provider": NameOllama,
		"model":    o.model,
		"base_url": o.baseURL,
	}
}

func truncateBody(body []byte) string {
	const limit = 400
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
