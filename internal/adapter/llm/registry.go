package llm

import (
	"fmt"
	"log/slog"
	"sync"

	"orgmind/internal/domain"
	"orgmind/internal/infra/config"
)

// Registry holds the provider adapters keyed by domain.Provider.
type Registry struct {
	mu        sync.RWMutex
	providers map[domain.Provider]domain.LLMProvider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[domain.Provider]domain.LLMProvider),
	}
}

// Register adds an adapter for kind. Returns error if already registered.
func (r *Registry) Register(kind domain.Provider, provider domain.LLMProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !kind.Valid() {
		return fmt.Errorf("unknown provider %q", kind)
	}
	if _, exists := r.providers[kind]; exists {
		return fmt.Errorf("provider %q already registered", kind)
	}
	r.providers[kind] = provider
	return nil
}

// Get retrieves the adapter for kind. A missing adapter means the provider
// was never configured, which is a configuration error, not a retryable one.
func (r *Registry) Get(kind domain.Provider) (domain.LLMProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[kind]
	if !ok {
		return nil, domain.NewDomainError("Registry.Get", domain.ErrProviderNotConfigured, string(kind))
	}
	return p, nil
}

// List returns all registered provider kinds.
func (r *Registry) List() []domain.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.Provider, 0, len(r.providers))
	for kind := range r.providers {
		kinds = append(kinds, kind)
	}
	return kinds
}

// BuildRegistry constructs adapters for every configured provider and wraps
// them with the optional resilience layers (rate limiter, circuit breaker).
// A provider entry with an empty API key is rejected up front so the
// misconfiguration surfaces at startup rather than mid-conversation.
func BuildRegistry(cfg config.LLMConfig, logger *slog.Logger) (*Registry, error) {
	registry := NewRegistry()

	for _, pc := range cfg.Providers {
		if pc.APIKey == "" {
			return nil, domain.NewDomainError("BuildRegistry", domain.ErrProviderNotConfigured,
				fmt.Sprintf("provider %q has no api key", pc.Name))
		}

		var provider domain.LLMProvider
		kind := domain.Provider(pc.Name)
		switch kind {
		case domain.ProviderAnthropic:
			provider = NewAnthropicProvider(pc, logger)
		case domain.ProviderOpenAI:
			provider = NewOpenAIProvider(pc, logger)
		case domain.ProviderGemini:
			provider = NewGeminiProvider(pc, logger)
		default:
			return nil, fmt.Errorf("unknown provider %q", pc.Name)
		}

		if cfg.RateLimit.RequestsPerMinute > 0 {
			provider = NewRateLimitedProvider(provider, cfg.RateLimit)
		}
		if cfg.CircuitBreaker.Enabled {
			provider = NewCircuitBreakerProvider(provider, cfg.CircuitBreaker, logger)
		}

		if err := registry.Register(kind, provider); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
