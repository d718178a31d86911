package provider

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/m4xw311/palaver/errors"
	"github.com/m4xw311/palaver/memory"
)

const bedrockMaxTokens = 4096

// Bedrock talks to Anthropic models hosted on AWS Bedrock. Credentials come
// from the standard AWS configuration chain.
type Bedrock struct {
	client  *bedrockruntime.Client
	modelID string
	region  string
}

// NewBedrock creates a Bedrock provider.
func NewBedrock(ctx context.Context, modelID string) (*Bedrock, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Tagf(errors.ErrConfiguration, "failed to load AWS config: %v", err)
	}

	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	return &Bedrock{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
		region:  region,
	}, nil
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
}

type bedrockMessage struct {
	Role    string         `json:"role"`
	Content []bedrockBlock `json:"content"`
}

type bedrockBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type bedrockResponse struct {
	Content []bedrockBlock `json:"content"`
	Error   any            `json:"error,omitempty"`
}

// bedrockStreamEvent is the chunk payload emitted by the response stream.
type bedrockStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

func (b *Bedrock) Generate(ctx context.Context, messages []memory.ContextMessage) (string, error) {
	body, err := b.requestBody(messages)
	if err != nil {
		return "", err
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to invoke bedrock model")
	}

	var parsed bedrockResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return "", errors.Wrapf(err, "failed to parse bedrock response")
	}
	if parsed.Error != nil {
		return "", errors.New("bedrock error: %v", parsed.Error)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

func (b *Bedrock) StreamGenerate(ctx context.Context, messages []memory.ContextMessage) (<-chan StreamEvent, error) {
	body, err := b.requestBody(messages)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to invoke bedrock model stream")
	}

	out := make(chan StreamEvent)
	go func() {
		defer close(out)
		stream := resp.GetStream()
		defer stream.Close()

		for event := range stream.Events() {
			chunk, ok := event.(*types.ResponseStreamMemberChunk)
			if !ok {
				continue
			}
			var parsed bedrockStreamEvent
			if err := json.Unmarshal(chunk.Value.Bytes, &parsed); err != nil {
				emit(ctx, out, StreamEvent{Err: errors.Wrapf(err, "malformed bedrock stream chunk")})
				return
			}
			if parsed.Type == "content_block_delta" && parsed.Delta.Type == "text_delta" && parsed.Delta.Text != "" {
				if !emit(ctx, out, StreamEvent{Text: parsed.Delta.Text}) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			emit(ctx, out, StreamEvent{Err: errors.Wrapf(err, "bedrock stream failed")})
		}
	}()
	return out, nil
}

func (b *Bedrock) requestBody(messages []memory.ContextMessage) ([]byte, error) {
	req := bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        bedrockMaxTokens,
	}
	for _, msg := range messages {
		switch msg.Role {
		case memory.RoleSystem:
			req.System = msg.Content
		case memory.RoleAssistant:
			req.Messages = append(req.Messages, bedrockMessage{
				Role:    "assistant",
				Content: []bedrockBlock{{Type: "text", Text: msg.Content}},
			})
		default:
			req.Messages = append(req.Messages, bedrockMessage{
				Role:    "user",
				Content: []bedrockBlock{{Type: "text", Text: msg.Content}},
			})
		}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal bedrock request")
	}
	return body, nil
}

// IsAvailable reports whether the AWS configuration chain produced a client.
func (b *Bedrock) IsAvailable(ctx context.Context) bool {
	return b.client != nil
}

func (b *Bedrock) Info() map[string]string {
	return map[string]string{
		"provider": NameBedrock,
		"model":    b.modelID,
		"region":   b.region,
	}
}
