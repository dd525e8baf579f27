package engine

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"LoveStory/server/internal/interfaces"
)

// TracerName names the tracer provider calls are recorded under.
const TracerName = "relay-engine"

// instrumentedProvider records metrics and a span around every completion.
type instrumentedProvider struct {
	next   interfaces.CompletionProvider
	tracer trace.Tracer
}

// Instrument wraps a provider with prometheus metrics and an otel span.
// A nil tracer falls back to the global tracer provider.
func Instrument(p interfaces.CompletionProvider, tracer trace.Tracer) interfaces.CompletionProvider {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &instrumentedProvider{
		next:   p,
		tracer: tracer,
	}
}

func (p *instrumentedProvider) Name() string {
	return p.next.Name()
}

func (p *instrumentedProvider) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.Completion, error) {
	name := p.next.Name()
	ctx, span := p.tracer.Start(ctx, "provider.complete",
		trace.WithAttributes(
			attribute.String("provider.name", name),
			attribute.String("provider.model", req.Model),
			attribute.Float64("provider.temperature", float64(req.Temperature)),
			attribute.Int("provider.max_tokens", req.MaxTokens),
			attribute.Bool("provider.json_mode", req.JSONMode),
		),
	)
	defer span.End()

	start := time.Now()
	completion, err := p.next.Complete(ctx, req)
	providerRequestDuration.WithLabelValues(name, req.Model).Observe(time.Since(start).Seconds())

	if err != nil {
		status := "error"
		if errors.Is(err, interfaces.ErrEmptyCompletion) {
			status = "empty"
		}
		providerRequestsTotal.WithLabelValues(name, req.Model, status).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	providerRequestsTotal.WithLabelValues(name, req.Model, "success").Inc()
	providerPromptTokens.WithLabelValues(name, req.Model).Observe(float64(completion.PromptTokens))
	providerCompletionTokens.WithLabelValues(name, req.Model).Observe(float64(completion.CompletionTokens))
	span.SetAttributes(
		attribute.Int("provider.prompt_tokens", completion.PromptTokens),
		attribute.Int("provider.completion_tokens", completion.CompletionTokens),
	)
	return completion, nil
}

// Close releases the wrapped provider's resources, if it holds any.
func (p *instrumentedProvider) Close() error {
	if c, ok := p.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
