package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m4xw311/palaver/errors"
	"github.com/m4xw311/palaver/memory"
)

const defaultHuggingFaceBaseURL = "https://router.huggingface.co/v1"

// HuggingFace talks to the Hugging Face inference router, which exposes an
// OpenAI-compatible chat completions API.
type HuggingFace struct {
	apiKey      string
	model       string
	temperature float64
	baseURL     string
	httpClient  *http.Client
}

// NewHuggingFace creates a Hugging Face provider. The API key is mandatory.
func NewHuggingFace(model, apiKey string, temperature float64) (*HuggingFace, error) {
	if apiKey == "" {
		return nil, errors.Tagf(errors.ErrConfiguration, "HUGGINGFACE_API_KEY not set")
	}
	return &HuggingFace{
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		baseURL:     defaultHuggingFaceBaseURL,
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

type hfChatRequest struct {
	Model       string                  `json:"model"`
	Messages    []memory.ContextMessage `json:"messages"`
	Temperature float64                 `json:"temperature,omitempty"`
	Stream      bool                    `json:"stream,omitempty"`
}

type hfChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type hfStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (h *HuggingFace) Generate(ctx context.Context, messages []memory.ContextMessage) (string, error) {
	resp, err := h.chatRequest(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "failed reading huggingface response")
	}
	var parsed hfChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.New("failed to parse huggingface response: %s", truncateBody(body))
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}

func (h *HuggingFace) StreamGenerate(ctx context.Context, messages []memory.ContextMessage) (<-chan StreamEvent, error) {
	resp, err := h.chatRequest(ctx, messages, true)
	if err != nil {
		return nil, err
	}

	out := make(chan StreamEvent)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return
			}
			var chunk hfStreamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				emit(ctx, out, StreamEvent{Err: errors.New("malformed huggingface stream chunk: %s", truncateBody([]byte(payload)))})
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				if !emit(ctx, out, StreamEvent{Text: delta}) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			emit(ctx, out, StreamEvent{Err: errors.Wrapf(err, "huggingface stream failed")})
		}
	}()
	return out, nil
}

func (h *HuggingFace) chatRequest(ctx context.Context, messages []memory.ContextMessage, stream bool) (*http.Response, error) {
	payload, err := json.Marshal(hfChatRequest{
		Model:       h.model,
		Messages:    messages,
		Temperature: h.temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal huggingface request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create huggingface request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "huggingface request failed")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, errors.New("huggingface non-success status=%d body=%s", resp.StatusCode, truncateBody(body))
	}
	return resp, nil
}

// IsAvailable reports whether an API key is configured. The router has no
// cheap unauthenticated health endpoint worth probing.
func (h *HuggingFace) IsAvailable(ctx context.Context) bool {
	return h.apiKey != ""
}

func (h *HuggingFace) Info() map[string]string {
	return map[string]string{
		"provider": NameHuggingFace,
		"model":    h.model,
		"base_url": h.baseURL,
	}
}
