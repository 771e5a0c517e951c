package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	DefaultOllamaURL = "http://localhost:11434"

	// Fast model for list processing and short briefings.
	DefaultOllamaModel = "llama3.2:3b"
)

// OllamaClient talks to a local Ollama server through /api/generate.
type OllamaClient struct {
	client *resty.Client
	model  string
}

// OllamaConfig holds the configuration for the Ollama client.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaClient creates a new Ollama client. No retries: tier exhaustion
// falls through to the next tier instead.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &OllamaClient{
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetHeader("Content-Type", "application/json"),
		model: cfg.Model,
	}
}

// Generate runs a non-streaming generation.
func (c *OllamaClient) Generate(ctx context.Context, req Request) (string, error) {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	options := map[string]any{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	for k, v := range req.Options {
		options[k] = v
	}

	log.Debug().Str("model", model).Msg("Sending generate request to Ollama")

	var result ollamaGenerateResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(ollamaGenerateRequest{
			Model:   model,
			Prompt:  req.Prompt,
			System:  req.SystemPrompt,
			Stream:  false,
			Options: options,
		}).
		SetResult(&result).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("ollama error: %s - %s", resp.Status(), resp.String())
	}

	if result.Response == "" {
		return "", ErrEmptyResponse
	}

	return result.Response, nil
}
