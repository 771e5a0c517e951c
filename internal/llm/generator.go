// Package llm provides the text-generation tiers consumed by the trend pipeline.
// Every backend implements Generator; stages never know which vendor answers.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned when a tier has no backend behind it.
	ErrNotConfigured = errors.New("llm tier not configured")

	// ErrEmptyResponse is returned when a backend answers with no text.
	ErrEmptyResponse = errors.New("empty response from model")
)

// Request is a single prompt-in, text-out generation call.
type Request struct {
	SystemPrompt string
	Prompt       string
	Model        string // empty selects the backend default
	Temperature  float32
	MaxTokens    int

	// Options are passed through to backends that accept runtime knobs (Ollama).
	Options map[string]any

	// Cacheable, when set, must accept a response before it is cached.
	Cacheable func(text string) bool
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Unavailable is a Generator that always fails; used for tiers left unconfigured.
type Unavailable struct {
	Tier string
}

// Generate always returns ErrNotConfigured.
func (u Unavailable) Generate(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}
