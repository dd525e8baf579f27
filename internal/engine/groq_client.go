package engine

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/atomic"

	"LoveStory/server/internal/interfaces"
)

const (
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	providerNameGroq   = "groq"
)

// GroqClient talks to Groq's OpenAI-compatible endpoint. With several API keys
// configured each request takes the next key in turn.
type GroqClient struct {
	clients []*openai.Client
	next    *atomic.Uint64
}

// NewGroqClient creates a client per API key. httpClient may be nil.
func NewGroqClient(baseURL string, apiKeys []string, httpClient *http.Client) *GroqClient {
	if baseURL == "" {
		baseURL = defaultGroqBaseURL
	}
	if len(apiKeys) == 0 {
		// requests will be rejected upstream and end in the crisis fallback
		apiKeys = []string{""}
	}

	clients := make([]*openai.Client, 0, len(apiKeys))
	for _, key := range apiKeys {
		config := openai.DefaultConfig(key)
		config.BaseURL = baseURL
		if httpClient != nil {
			config.HTTPClient = httpClient
		}
		clients = append(clients, openai.NewClientWithConfig(config))
	}

	return &GroqClient{
		clients: clients,
		next:    atomic.NewUint64(0),
	}
}

func (c *GroqClient) Name() string {
	return providerNameGroq
}

// Complete sends a single chat completion request. No retries.
func (c *GroqClient) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.Completion, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.pick().CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("groq chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, interfaces.ErrEmptyCompletion
	}

	return &interfaces.Completion{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (c *GroqClient) pick() *openai.Client {
	n := c.next.Inc() - 1
	return c.clients[n%uint64(len(c.clients))]
}
