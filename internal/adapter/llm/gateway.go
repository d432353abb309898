package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"orgmind/internal/domain"
	"orgmind/internal/infra/tracer"
)

// Rate-limit retry policy. A rate-limited call is attempted at most
// 1 + maxRateLimitRetries times; every other failure is terminal on the
// first attempt. The backoff base doubles per retry unless the provider
// supplied a Retry-After value.
const (
	maxRateLimitRetries = 3

	// DefaultBackoffBase is the initial backoff for ordinary chat calls.
	DefaultBackoffBase = 1 * time.Second

	// ToolLoopBackoffBase is the initial backoff for the chat tool loop,
	// whose requests carry the full tool schema registry and are markedly
	// heavier. Note the worst case across 3 retries approaches a minute;
	// callers with short deadlines will see a context error instead of a
	// rate-limit error.
	ToolLoopBackoffBase = 15 * time.Second
)

// Gateway dispatches agent calls to the adapter for the agent's provider
// and owns the rate-limit retry/backoff loop. It implements domain.Gateway
// and holds no per-request state.
type Gateway struct {
	registry *Registry
	logger   *slog.Logger
}

// NewGateway creates a Gateway over a provider registry.
func NewGateway(registry *Registry, logger *slog.Logger) *Gateway {
	return &Gateway{registry: registry, logger: logger}
}

var _ domain.Gateway = (*Gateway)(nil)

// Send resolves the adapter for profile.Provider, builds the request from
// the profile's model settings, and performs the call with 429 retry.
func (g *Gateway) Send(ctx context.Context, profile domain.AgentProfile, systemPrompt string, history []domain.Message, opts domain.SendOptions) (*domain.ChatResponse, error) {
	ctx, span := tracer.StartSpan(ctx, "gateway.send",
		trace.WithAttributes(
			tracer.StringAttr("agent.id", profile.ID),
			tracer.StringAttr("llm.provider", string(profile.Provider)),
		),
	)
	defer span.End()

	provider, err := g.registry.Get(profile.Provider)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	messages := make([]domain.Message, 0, len(history)+1)
	if systemPrompt != "" {
		messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, history...)

	req := domain.ChatRequest{
		Model:       profile.Model,
		Messages:    messages,
		Tools:       opts.Tools,
		MaxTokens:   profile.MaxTokens,
		Temperature: profile.Temperature,
	}

	backoff := opts.BackoffBase
	if backoff <= 0 {
		backoff = DefaultBackoffBase
	}

	var lastErr error
	for attempt := 0; attempt <= maxRateLimitRetries; attempt++ {
		resp, callErr := provider.Chat(ctx, req)
		if callErr == nil {
			if attempt > 0 {
				span.AddEvent("rate_limit_retries", trace.WithAttributes(tracer.IntAttr("retries", attempt)))
			}
			tracer.SetOK(span)
			return resp, nil
		}
		lastErr = callErr

		var rl *domain.RateLimitError
		if !errors.As(callErr, &rl) {
			// Anything that is not a 429 is terminal.
			tracer.RecordError(span, callErr)
			return nil, callErr
		}
		if attempt == maxRateLimitRetries {
			break
		}

		wait := rl.RetryAfter
		if wait <= 0 {
			wait = backoff
			backoff *= 2
		}

		g.logger.Warn("provider rate limited, backing off",
			"provider", provider.Name(),
			"attempt", attempt+1,
			"wait", wait,
		)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			tracer.RecordError(span, ctx.Err())
			return nil, ctx.Err()
		}
	}

	err = fmt.Errorf("%w: provider %q still rate limited after %d retries: %v",
		domain.ErrRateLimit, provider.Name(), maxRateLimitRetries, lastErr)
	tracer.RecordError(span, err)
	return nil, err
}
