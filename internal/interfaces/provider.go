package interfaces

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned by providers when the model produced no choices or no content.
var ErrEmptyCompletion = errors.New("provider returned an empty completion")

// CompletionRequest is a single chat completion call.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	Temperature  float32
	MaxTokens    int  // 0 leaves the provider default
	JSONMode     bool // ask for a JSON object response
}

// Completion is the text returned by the provider.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// CompletionProvider defines the interface for the hosted LLM.
type CompletionProvider interface {
	// Name is reported by the health endpoint
	Name() string

	// Complete sends one request. It returns ErrEmptyCompletion when the
	// provider answered without usable content.
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
}
