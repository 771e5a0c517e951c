package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient generates text with the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// GeminiConfig holds the configuration for the Gemini client.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required: %w", ErrNotConfigured)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: cfg.Model}, nil
}

// Generate sends a single-turn prompt.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	log.Debug().Str("model", model).Msg("Sending generate request to Gemini")

	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
