package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the orchestration core.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Chat      ChatConfig      `yaml:"chat"`
	Relevance RelevanceConfig `yaml:"relevance"`
	Seeding   SeedingConfig   `yaml:"seeding"`
	Store     StoreConfig     `yaml:"store"`
	Logger    LoggerConfig    `yaml:"logger"`
	Tracer    TracerConfig    `yaml:"tracer"`
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	Providers      []ProviderConfig     `yaml:"providers"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
}

// ProviderConfig holds settings for a single LLM provider.
type ProviderConfig struct {
	Name        string        `yaml:"name"` // one of: anthropic, openai, gemini
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	ConnTimeout time.Duration `yaml:"conn_timeout"`
	RespTimeout time.Duration `yaml:"resp_timeout"`
	Pool        PoolConfig    `yaml:"pool"`
}

// PoolConfig holds HTTP connection pool settings for LLM providers.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// CircuitBreakerConfig holds circuit breaker settings for LLM providers.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// RateLimitConfig holds client-side request rate limiting for providers.
// RequestsPerMinute 0 disables the limiter.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// ChatConfig configures the default single-agent chat profile.
type ChatConfig struct {
	Provider     string  `yaml:"provider"`
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	SystemPrompt string  `yaml:"system_prompt"`
}

// RelevanceConfig configures the relevance engine.
type RelevanceConfig struct {
	Threshold       int    `yaml:"threshold"`
	ScoringProvider string `yaml:"scoring_provider"`
	ScoringModel    string `yaml:"scoring_model"`
}

// SeedingConfig sets the provider and model assigned to newly seeded
// built-in specialist agents.
type SeedingConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// StoreConfig holds agent store settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// Defaults returns a Config with sensible defaults. Provider API keys are
// always supplied via config file or environment, never defaulted.
func Defaults() *Config {
	return &Config{
		Chat: ChatConfig{
			Provider:    "anthropic",
			Temperature: 0.7,
			MaxTokens:   2048,
		},
		Relevance: RelevanceConfig{
			Threshold:       60,
			ScoringProvider: "anthropic",
		},
		Seeding: SeedingConfig{
			Provider: "anthropic",
		},
		Store: StoreConfig{
			Path: "orgmind.db",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads configuration from path, layered over Defaults, then applies
// environment overrides. An empty path returns defaults + environment.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config fields from ORGMIND_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ORGMIND_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("ORGMIND_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("ORGMIND_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("ORGMIND_RELEVANCE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Relevance.Threshold = n
		}
	}
	for i := range cfg.LLM.Providers {
		p := &cfg.LLM.Providers[i]
		switch p.Name {
		case "anthropic":
			if v := os.Getenv("ORGMIND_ANTHROPIC_API_KEY"); v != "" {
				p.APIKey = v
			}
		case "openai":
			if v := os.Getenv("ORGMIND_OPENAI_API_KEY"); v != "" {
				p.APIKey = v
			}
		case "gemini":
			if v := os.Getenv("ORGMIND_GEMINI_API_KEY"); v != "" {
				p.APIKey = v
			}
		}
	}
}

// Validate checks cross-field invariants.
func (c *Config) Validate() error {
	if c.Relevance.Threshold < 0 || c.Relevance.Threshold > 100 {
		return fmt.Errorf("relevance.threshold must be in [0,100], got %d", c.Relevance.Threshold)
	}
	seen := map[string]bool{}
	for _, p := range c.LLM.Providers {
		switch p.Name {
		case "anthropic", "openai", "gemini":
		default:
			return fmt.Errorf("unknown provider %q", p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("provider %q configured twice", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Provider returns the configuration for a named provider, if present.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	for _, p := range c.LLM.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderConfig{}, false
}
