package reminder

// bedrock.go streams model output from AWS Bedrock using the Anthropic
// messages payload. Chunks are decoded here and forwarded to the caller
// through a callback, keeping the HTTP transport out of this package.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// DefaultModelID is used when no model is configured.
const DefaultModelID = "anthropic.claude-3-haiku-20240307-v1:0"

// bedrockRequest is the Anthropic messages payload Bedrock expects.
type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// streamEvent is one decoded chunk from the response stream. Only
// content_block_delta events carry reminder text.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

// invokeStreamAPI is the slice of the Bedrock client the generator uses.
// Narrowed to an interface so tests can substitute a fake.
type invokeStreamAPI interface {
	InvokeModelWithResponseStream(ctx context.Context, params *bedrockruntime.InvokeModelWithResponseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelWithResponseStreamOutput, error)
}

// Generator streams reminder text from Bedrock.
type Generator struct {
	client    invokeStreamAPI
	modelID   string
	maxTokens int
}

// New creates a Generator with AWS credentials from the default chain.
func New(ctx context.Context, modelID, region string, maxTokens int) (*Generator, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewWithClient(bedrockruntime.NewFromConfig(cfg), modelID, maxTokens), nil
}

// NewWithClient creates a Generator around an existing client.
func NewWithClient(client invokeStreamAPI, modelID string, maxTokens int) *Generator {
	if modelID == "" {
		modelID = DefaultModelID
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Generator{client: client, modelID: modelID, maxTokens: maxTokens}
}

// Stream generates reminder text for req, invoking emit once per text
// chunk as it arrives. A non-nil error from emit cancels the stream and
// is returned unchanged.
func (g *Generator) Stream(ctx context.Context, req Request, emit func(chunk string) error) error {
	body, err := json.Marshal(bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        g.maxTokens,
		System:           systemPrompt,
		Temperature:      0.7,
		Messages: []bedrockMessage{
			{Role: "user", Content: []contentBlock{{Type: "text", Text: BuildPrompt(req)}}},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	output, err := g.client.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(g.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("invoke model: %w", err)
	}

	stream := output.GetStream()
	defer stream.Close()

	if err := decodeStream(stream.Events(), emit); err != nil {
		return err
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("response stream: %w", err)
	}
	return nil
}

// decodeStream consumes raw Bedrock response events, decoding each chunk
// and forwarding non-empty text deltas to emit. A non-nil error from
// emit stops consumption and is returned unchanged.
func decodeStream(events <-chan brtypes.ResponseStream, emit func(chunk string) error) error {
	for event := range events {
		chunk, ok := event.(*brtypes.ResponseStreamMemberChunk)
		if !ok {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal(chunk.Value.Bytes, &ev); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}
		if ev.Type != "content_block_delta" || ev.Delta.Text == "" {
			continue
		}
		if err := emit(ev.Delta.Text); err != nil {
			return err
		}
	}
	return nil
}
