package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"LoveStory/server/internal/config"
	"LoveStory/server/internal/interfaces"
	"LoveStory/server/internal/models"
	"LoveStory/server/internal/prompts"
)

// CharacterResolver maps the characters in a story segment onto portrait files.
type CharacterResolver struct {
	provider interfaces.CompletionProvider
	prompts  *prompts.TemplateEngine
	params   config.CompletionConfig
	timeout  time.Duration
	audit    auditor
	logger   *zap.Logger
}

// NewCharacterResolver creates a resolver. recorder may be nil.
func NewCharacterResolver(
	provider interfaces.CompletionProvider,
	templates *prompts.TemplateEngine,
	params config.CompletionConfig,
	timeout time.Duration,
	recorder interfaces.TurnRecorder,
	logger *zap.Logger,
) *CharacterResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CharacterResolver{
		provider: provider,
		prompts:  templates,
		params:   params,
		timeout:  timeout,
		audit:    auditor{recorder: recorder, logger: logger},
		logger:   logger.Named("extract"),
	}
}

// Extract never fails. On any error it returns an empty list and ok=false.
func (r *CharacterResolver) Extract(ctx context.Context, req *models.ExtractionRequest) (resp *models.ExtractionResponse, ok bool) {
	start := time.Now()
	rec := &models.TurnRecord{
		Kind:     models.RecordKindExtraction,
		Provider: r.provider.Name(),
		Model:    r.params.Model,
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Recovered from panic during extraction", zap.Any("panic", p))
			resp, ok = models.EmptyExtraction(), false
			rec.Error = fmt.Sprintf("panic: %v", p)
		}
		rec.Outcome = models.OutcomeOK
		if !ok {
			rec.Outcome = models.OutcomeFailed
		}
		rec.LatencyMs = time.Since(start).Milliseconds()
		extractionsTotal.WithLabelValues(rec.Outcome).Inc()
		r.audit.record(rec)
	}()

	characters, err := r.extract(ctx, req, rec)
	if err != nil {
		r.logger.Warn("Character extraction failed", zap.Error(err))
		rec.Error = err.Error()
		return models.EmptyExtraction(), false
	}
	return characters, true
}

func (r *CharacterResolver) extract(ctx context.Context, req *models.ExtractionRequest, rec *models.TurnRecord) (*models.ExtractionResponse, error) {
	prompt, err := r.prompts.BuildExtractionPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}
	rec.SystemPromptBytes = len(prompt.System)
	rec.UserPromptBytes = len(prompt.User)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	completion, err := r.provider.Complete(ctx, &interfaces.CompletionRequest{
		SystemPrompt: prompt.System,
		UserPrompt:   prompt.User,
		Model:        r.params.Model,
		Temperature:  r.params.Temperature,
		MaxTokens:    r.params.MaxTokens,
		JSONMode:     true,
	})
	if err != nil {
		return nil, err
	}
	rec.Response = completion.Content

	var out models.ExtractionResponse
	if err := json.Unmarshal([]byte(models.StripCodeFence(completion.Content)), &out); err != nil {
		return nil, fmt.Errorf("failed to parse extraction: %w", err)
	}
	if out.Characters == nil {
		out.Characters = []json.RawMessage{}
	}
	return &out, nil
}
