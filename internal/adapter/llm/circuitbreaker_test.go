package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"orgmind/internal/domain"

	"orgmind/internal/infra/config"
)

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("provider down")
	inner := &scriptedProvider{name: "anthropic", results: []scriptedResult{{err: boom}}}
	cb := NewCircuitBreakerProvider(inner, config.CircuitBreakerConfig{
		Enabled:     true,
		MaxFailures: 2,
		Timeout:     time.Minute,
	}, newTestLogger())

	ctx := context.Background()
	req := domain.ChatRequest{Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}}}

	for i := 0; i < 2; i++ {
		if _, err := cb.Chat(ctx, req); !errors.Is(err, boom) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	// Open circuit fails fast without touching the provider.
	calls := inner.calls
	_, err := cb.Chat(ctx, req)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want ErrOpenState", err)
	}
	if inner.calls != calls {
		t.Errorf("provider called while circuit open")
	}
}

func TestCircuitBreakerIgnoresRateLimits(t *testing.T) {
	inner := &scriptedProvider{
		name:    "anthropic",
		results: []scriptedResult{{err: &domain.RateLimitError{RetryAfter: time.Second}}},
	}
	cb := NewCircuitBreakerProvider(inner, config.CircuitBreakerConfig{
		Enabled:     true,
		MaxFailures: 2,
	}, newTestLogger())

	ctx := context.Background()
	req := domain.ChatRequest{Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}}}

	for i := 0; i < 10; i++ {
		if _, err := cb.Chat(ctx, req); !errors.Is(err, domain.ErrRateLimit) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, 429s must not trip the breaker", cb.State())
	}
}

func TestCircuitBreakerPassesSuccessThrough(t *testing.T) {
	inner := &scriptedProvider{name: "anthropic", results: []scriptedResult{{resp: okResponse("fine")}}}
	cb := NewCircuitBreakerProvider(inner, config.CircuitBreakerConfig{Enabled: true}, newTestLogger())

	resp, err := cb.Chat(context.Background(), domain.ChatRequest{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "fine" {
		t.Errorf("content = %q", resp.Message.Content)
	}
	if cb.Name() != "anthropic" {
		t.Errorf("name = %q", cb.Name())
	}
}
