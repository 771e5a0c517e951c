package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DashScope OpenAI-compatible endpoint
	DefaultOpenAIEndpoint = "https://dashscope-intl.aliyuncs.com/compatible-mode/v1"

	DefaultOpenAIModel = "qwen-plus"
)

// OpenAIClient wraps the OpenAI SDK for any OpenAI-compatible endpoint
// (DashScope/Qwen, OpenAI, vLLM, Ollama's /v1).
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// OpenAIConfig holds the configuration for the OpenAI-compatible client.
type OpenAIConfig struct {
	APIKey   string
	Endpoint string
	Model    string
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultOpenAIEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.Endpoint

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}
}

// Generate sends a chat completion request.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	messages := []openai.ChatCompletionMessage{}

	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
	}

	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	log.Debug().
		Str("model", model).
		Int("messages", len(messages)).
		Msg("Sending chat request")

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	log.Debug().
		Str("model", model).
		Int("total_tokens", resp.Usage.TotalTokens).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Msg("Chat response received")

	return resp.Choices[0].Message.Content, nil
}
