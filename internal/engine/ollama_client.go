package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"LoveStory/server/internal/interfaces"
)

const providerNameOllama = "ollama"

// OllamaClient calls a self-hosted Ollama server.
type OllamaClient struct {
	client *api.Client
}

func NewOllamaClient(baseURL string, httpClient *http.Client) (*OllamaClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaClient{client: api.NewClient(u, httpClient)}, nil
}

func (c *OllamaClient) Name() string {
	return providerNameOllama
}

func (c *OllamaClient) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.Completion, error) {
	stream := false
	chatReq := &api.ChatRequest{
		Model: req.Model,
		Messages: []api.Message{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": req.Temperature,
		},
	}
	if req.MaxTokens > 0 {
		chatReq.Options["num_predict"] = req.MaxTokens
	}
	if req.JSONMode {
		chatReq.Format = json.RawMessage(`"json"`)
	}

	var (
		content strings.Builder
		last    api.ChatResponse
	)
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		last = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}

	if strings.TrimSpace(content.String()) == "" {
		return nil, interfaces.ErrEmptyCompletion
	}

	return &interfaces.Completion{
		Content:          content.String(),
		PromptTokens:     last.PromptEvalCount,
		CompletionTokens: last.EvalCount,
	}, nil
}
