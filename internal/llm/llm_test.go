package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaClient_Generate(t *testing.T) {
	var got ollamaGenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama3.2:3b","response":"[\"비트코인\"]","done":true}`))
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	text, err := client.Generate(context.Background(), Request{
		Prompt:      "refine",
		Temperature: 0.1,
		MaxTokens:   500,
		Options:     map[string]any{"num_ctx": 4096},
	})

	require.NoError(t, err)
	assert.Equal(t, `["비트코인"]`, text)
	assert.Equal(t, DefaultOllamaModel, got.Model)
	assert.False(t, got.Stream)
	assert.EqualValues(t, 500, got.Options["num_predict"])
	assert.EqualValues(t, 4096, got.Options["num_ctx"])
}

func TestOllamaClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	_, err := client.Generate(context.Background(), Request{Prompt: "x"})
	assert.Error(t, err)
}

func TestOllamaClient_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"","done":true}`))
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	_, err := client.Generate(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "qwen-max", body["model"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "bullish"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4}
		}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "test", Endpoint: srv.URL, Model: "qwen-max"})
	text, err := client.Generate(context.Background(), Request{SystemPrompt: "sys", Prompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "bullish", text)
}

func TestNewCloudGenerator_MissingKey(t *testing.T) {
	for _, provider := range []string{ProviderClaude, ProviderOpenAI, ProviderGemini} {
		_, err := NewCloudGenerator(context.Background(), CloudConfig{Provider: provider})
		assert.ErrorIs(t, err, ErrNotConfigured, provider)
	}

	_, err := NewCloudGenerator(context.Background(), CloudConfig{Provider: "mystery", APIKey: "k"})
	assert.Error(t, err)
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{Tier: "cloud"}.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

type countingGenerator struct {
	calls int
	text  string
	err   error
}

func (g *countingGenerator) Generate(context.Context, Request) (string, error) {
	g.calls++
	return g.text, g.err
}

func TestCachedGenerator_LowTemperatureIsCached(t *testing.T) {
	next := &countingGenerator{text: "cached answer"}
	gen := NewCachedGenerator("local", next, NewMemoryCache(time.Minute), time.Minute)
	ctx := context.Background()
	req := Request{Prompt: "group these", Temperature: 0.1, MaxTokens: 500}

	for i := 0; i < 3; i++ {
		text, err := gen.Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "cached answer", text)
	}

	assert.Equal(t, 1, next.calls)
	stats := gen.Stats()
	assert.EqualValues(t, 2, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
}

func TestCachedGenerator_HighTemperatureBypassesCache(t *testing.T) {
	next := &countingGenerator{text: "fresh"}
	gen := NewCachedGenerator("cloud", next, NewMemoryCache(time.Minute), time.Minute)
	req := Request{Prompt: "write", Temperature: 0.7}

	gen.Generate(context.Background(), req)
	gen.Generate(context.Background(), req)

	assert.Equal(t, 2, next.calls)
	assert.Zero(t, gen.Stats().Hits)
}

func TestCachedGenerator_ErrorsAreNotCached(t *testing.T) {
	next := &countingGenerator{err: errors.New("boom")}
	gen := NewCachedGenerator("local", next, NewMemoryCache(time.Minute), time.Minute)
	req := Request{Prompt: "x", Temperature: 0}

	_, err := gen.Generate(context.Background(), req)
	assert.Error(t, err)
	_, err = gen.Generate(context.Background(), req)
	assert.Error(t, err)
	assert.Equal(t, 2, next.calls)

	stats := gen.Stats()
	assert.EqualValues(t, 2, stats.Misses)
	assert.Zero(t, stats.HitRate)
}

func TestCachedGenerator_RejectedResponsesAreNotCached(t *testing.T) {
	next := &countingGenerator{text: "not json"}
	gen := NewCachedGenerator("cloud", next, NewMemoryCache(time.Minute), time.Minute)
	req := Request{
		Prompt:      "rank",
		Temperature: 0.2,
		Cacheable:   func(text string) bool { return json.Valid([]byte(text)) },
	}

	for i := 0; i < 2; i++ {
		text, err := gen.Generate(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "not json", text)
	}
	assert.Equal(t, 2, next.calls)

	next.text = `[1]`
	for i := 0; i < 2; i++ {
		_, err := gen.Generate(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, next.calls)
	assert.EqualValues(t, 1, gen.Stats().Hits)
}

func TestCachedGenerator_KeySeparatesTiers(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	a := NewCachedGenerator("a", &countingGenerator{text: "from a"}, cache, time.Minute)
	b := NewCachedGenerator("b", &countingGenerator{text: "from b"}, cache, time.Minute)
	req := Request{Prompt: "same prompt", Temperature: 0.1}

	ta, _ := a.Generate(context.Background(), req)
	tb, _ := b.Generate(context.Background(), req)
	assert.Equal(t, "from a", ta)
	assert.Equal(t, "from b", tb)
}
