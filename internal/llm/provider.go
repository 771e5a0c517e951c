package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider names accepted for the cloud tier.
const (
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
)

// CloudConfig selects and configures the high-capability tier.
type CloudConfig struct {
	Provider string
	APIKey   string
	Endpoint string // OpenAI-compatible only
	Model    string
}

// NewCloudGenerator builds the high-capability tier for the configured provider.
func NewCloudGenerator(ctx context.Context, cfg CloudConfig) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini, "":
		c, err := NewGeminiClient(ctx, GeminiConfig{APIKey: cfg.APIKey, Model: cfg.Model})
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderClaude, "anthropic":
		c, err := NewClaudeClient(ClaudeConfig{APIKey: cfg.APIKey, Model: cfg.Model})
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderOpenAI, "qwen", "dashscope":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai-compatible api key is required: %w", ErrNotConfigured)
		}
		return NewOpenAIClient(OpenAIConfig{APIKey: cfg.APIKey, Endpoint: cfg.Endpoint, Model: cfg.Model}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
