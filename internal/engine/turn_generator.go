package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"LoveStory/server/internal/config"
	"LoveStory/server/internal/interfaces"
	"LoveStory/server/internal/models"
	"LoveStory/server/internal/prompts"
)

// TurnGenerator produces one narrative segment per request.
// It keeps no story state: everything it needs arrives with the request.
type TurnGenerator struct {
	provider interfaces.CompletionProvider
	prompts  *prompts.TemplateEngine
	params   config.CompletionConfig
	timeout  time.Duration
	audit    auditor
	logger   *zap.Logger
}

// NewTurnGenerator creates a turn generator. recorder may be nil.
func NewTurnGenerator(
	provider interfaces.CompletionProvider,
	templates *prompts.TemplateEngine,
	params config.CompletionConfig,
	timeout time.Duration,
	recorder interfaces.TurnRecorder,
	logger *zap.Logger,
) *TurnGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TurnGenerator{
		provider: provider,
		prompts:  templates,
		params:   params,
		timeout:  timeout,
		audit:    auditor{recorder: recorder, logger: logger},
		logger:   logger.Named("turn"),
	}
}

// Generate returns the next segment. The only error it returns is
// interfaces.ErrEmptyCompletion; every other failure becomes a fallback segment.
func (g *TurnGenerator) Generate(ctx context.Context, req *models.TurnRequest) (resp *models.TurnResponse, err error) {
	start := time.Now()
	branch := prompts.BranchStart
	if req.IsContinuation() {
		branch = prompts.BranchContinuation
	}

	rec := &models.TurnRecord{
		Kind:     models.RecordKindTurn,
		Provider: g.provider.Name(),
		Model:    g.params.Model,
		Branch:   branch,
	}

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("Recovered from panic during turn generation", zap.Any("panic", r))
			resp, err = CrisisResponse(fmt.Errorf("panic during turn generation: %v", r)), nil
			rec.Outcome = models.OutcomeCrisis
			rec.Error = resp.Error
		}
		rec.LatencyMs = time.Since(start).Milliseconds()
		turnsTotal.WithLabelValues(branch, rec.Outcome).Inc()
		g.audit.record(rec)
	}()

	prompt, err := g.prompts.BuildTurnPrompt(req)
	if err != nil {
		g.logger.Error("Failed to build turn prompt", zap.Error(err))
		return g.crisis(rec, fmt.Errorf("failed to build prompt: %w", err)), nil
	}
	rec.SystemPromptBytes = len(prompt.System)
	rec.UserPromptBytes = len(prompt.User)

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	completion, err := g.provider.Complete(callCtx, &interfaces.CompletionRequest{
		SystemPrompt: prompt.System,
		UserPrompt:   prompt.User,
		Model:        g.params.Model,
		Temperature:  g.params.Temperature,
		MaxTokens:    g.params.MaxTokens,
		JSONMode:     true,
	})
	if errors.Is(err, interfaces.ErrEmptyCompletion) {
		g.logger.Warn("Provider returned an empty completion", zap.String("branch", branch))
		rec.Outcome = models.OutcomeEmpty
		rec.Error = err.Error()
		return nil, err
	}
	if err != nil {
		g.logger.Error("Provider call failed", zap.String("branch", branch), zap.Error(err))
		return g.crisis(rec, err), nil
	}
	rec.Response = completion.Content

	fallbackLocation := strings.TrimSpace(req.CurrentLocation)
	if req.IsContinuation() {
		fallbackLocation = req.Location()
	}

	resp, err = models.ParseTurnResponse(completion.Content, fallbackLocation)
	if err != nil {
		g.logger.Warn("Discarding unusable completion",
			zap.String("branch", branch),
			zap.Error(err),
			zap.Int("content_length", len(completion.Content)))
		rec.Outcome = models.OutcomeDegraded
		rec.Error = err.Error()
		return DegradedResponse(), nil
	}

	for _, w := range LintTurn(resp, branch) {
		lintWarningsTotal.WithLabelValues(w.Rule).Inc()
		g.logger.Info("Turn broke a style rule", zap.String("rule", w.Rule), zap.String("detail", w.Detail))
	}

	rec.Outcome = models.OutcomeOK
	if data, mErr := json.Marshal(resp); mErr == nil {
		rec.Response = string(data)
	}

	g.logger.Debug("Turn generated",
		zap.String("branch", branch),
		zap.String("location", resp.LocationName),
		zap.Int("options", len(resp.Options)),
		zap.Bool("is_ending", resp.IsEnding))

	return resp, nil
}

func (g *TurnGenerator) crisis(rec *models.TurnRecord, err error) *models.TurnResponse {
	resp := CrisisResponse(err)
	rec.Outcome = models.OutcomeCrisis
	rec.Error = resp.Error
	return resp
}
