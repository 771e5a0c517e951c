package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
)

const (
	DefaultClaudeModel     = "claude-sonnet-4-5"
	defaultClaudeMaxTokens = 1024
)

// ClaudeClient generates text with the Anthropic Messages API.
type ClaudeClient struct {
	client anthropic.Client
	model  string
}

// ClaudeConfig holds the configuration for the Claude client.
type ClaudeConfig struct {
	APIKey string
	Model  string
}

// NewClaudeClient creates a new Claude client.
func NewClaudeClient(cfg ClaudeConfig) (*ClaudeClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required: %w", ErrNotConfigured)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultClaudeModel
	}

	return &ClaudeClient{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  cfg.Model,
	}, nil
}

// Generate sends a single-turn prompt.
func (c *ClaudeClient) Generate(ctx context.Context, req Request) (string, error) {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	log.Debug().Str("model", model).Msg("Sending message request to Claude")

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude message failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return text.String(), nil
}
