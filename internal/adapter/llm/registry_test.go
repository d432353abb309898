package llm

import (
	"errors"
	"testing"

	"orgmind/internal/domain"

	"orgmind/internal/infra/config"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	p := &scriptedProvider{name: "anthropic"}

	if err := r.Register(domain.ProviderAnthropic, p); err != nil {
		t.Fatalf("register: %v", err)
	}
	got, err := r.Get(domain.ProviderAnthropic)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != p {
		t.Error("got different provider back")
	}
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(domain.ProviderOpenAI, &scriptedProvider{name: "openai"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(domain.ProviderOpenAI, &scriptedProvider{name: "openai"}); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestRegistryRejectsUnknownKind(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(domain.Provider("mistral"), &scriptedProvider{name: "mistral"}); err == nil {
		t.Error("expected unknown provider error")
	}
}

func TestRegistryGetMissing(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(domain.ProviderGemini)
	if !errors.Is(err, domain.ErrProviderNotConfigured) {
		t.Fatalf("error = %v, want ErrProviderNotConfigured", err)
	}
}

func TestBuildRegistry(t *testing.T) {
	cfg := config.LLMConfig{
		Providers: []config.ProviderConfig{
			{Name: "anthropic", APIKey: "k1", Model: "claude-sonnet-4"},
			{Name: "openai", APIKey: "k2", Model: "gpt-4o"},
			{Name: "gemini", APIKey: "k3", Model: "gemini-2.0-flash"},
		},
	}

	r, err := BuildRegistry(cfg, newTestLogger())
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	if got := len(r.List()); got != 3 {
		t.Errorf("registered = %d, want 3", got)
	}
	for _, kind := range []domain.Provider{domain.ProviderAnthropic, domain.ProviderOpenAI, domain.ProviderGemini} {
		if _, err := r.Get(kind); err != nil {
			t.Errorf("get %s: %v", kind, err)
		}
	}
}

func TestBuildRegistryRejectsEmptyAPIKey(t *testing.T) {
	cfg := config.LLMConfig{
		Providers: []config.ProviderConfig{{Name: "anthropic", Model: "claude-sonnet-4"}},
	}
	_, err := BuildRegistry(cfg, newTestLogger())
	if !errors.Is(err, domain.ErrProviderNotConfigured) {
		t.Fatalf("error = %v, want ErrProviderNotConfigured", err)
	}
}

func TestBuildRegistryWrapsResilienceLayers(t *testing.T) {
	cfg := config.LLMConfig{
		Providers: []config.ProviderConfig{{Name: "anthropic", APIKey: "k1", Model: "claude-sonnet-4"}},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 60, Burst: 5},
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:     true,
			MaxFailures: 3,
		},
	}

	r, err := BuildRegistry(cfg, newTestLogger())
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	p, err := r.Get(domain.ProviderAnthropic)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// Outermost wrapper is the circuit breaker.
	if _, ok := p.(*CircuitBreakerProvider); !ok {
		t.Errorf("provider type = %T, want *CircuitBreakerProvider", p)
	}
	if p.Name() != "anthropic" {
		t.Errorf("name = %q", p.Name())
	}
}
