package engine

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"LoveStory/server/internal/config"
	"LoveStory/server/internal/interfaces"
)

// NewProvider builds the configured completion provider, already instrumented
// with tracer. tracer may be nil.
func NewProvider(ctx context.Context, cfg *config.Config, tracer trace.Tracer) (interfaces.CompletionProvider, error) {
	httpClient := &http.Client{Timeout: cfg.Provider.Timeout}

	var provider interfaces.CompletionProvider
	switch cfg.Provider.Name {
	case config.ProviderGroq:
		provider = NewGroqClient(cfg.Provider.Groq.BaseURL, cfg.Provider.Groq.APIKeys, httpClient)
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg.Provider.Gemini.APIKey)
		if err != nil {
			return nil, err
		}
		provider = client
	case config.ProviderOllama:
		client, err := NewOllamaClient(cfg.Provider.Ollama.BaseURL, httpClient)
		if err != nil {
			return nil, err
		}
		provider = client
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider.Name)
	}

	return Instrument(provider, tracer), nil
}
