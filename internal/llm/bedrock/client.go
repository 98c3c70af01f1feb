package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"documind-backend/internal/llm"
)

// DefaultModelID is Claude 3 Haiku, fast and cheap for document workloads.
const DefaultModelID = "anthropic.claude-3-haiku-20240307-v1:0"

const anthropicVersion = "bedrock-2023-05-31"

// Client invokes Anthropic models through the Bedrock runtime.
type Client struct {
	runtime invoker
	modelID string
}

type invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// New builds a client from the default AWS credential chain.
func New(ctx context.Context, region string, modelID string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("bedrock: load aws config: %w", err)
	}
	return NewWithRuntime(bedrockruntime.NewFromConfig(cfg), modelID), nil
}

// NewWithRuntime wires an already-built runtime client, mainly for tests.
func NewWithRuntime(runtime invoker, modelID string) *Client {
	if modelID == "" {
		modelID = DefaultModelID
	}
	return &Client{runtime: runtime, modelID: modelID}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type invokeBody struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	System           string    `json:"system,omitempty"`
	Messages         []message `json:"messages"`
}

type invokeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends a single-turn messages request and returns the first text
// block of the response.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	body, err := json.Marshal(invokeBody{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Temperature:      req.Temperature,
		System:           req.System,
		Messages:         []message{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("bedrock: marshal request: %w", err)
	}

	out, err := c.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("bedrock: invoke model %s: %w", c.modelID, err)
	}

	var parsed invokeResponse
	if err := json.Unmarshal(out.Body, &parsed); err != nil {
		return "", fmt.Errorf("bedrock: decode response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", errors.New("bedrock: empty response content")
	}
	return parsed.Content[0].Text, nil
}

var _ llm.Client = (*Client)(nil)
