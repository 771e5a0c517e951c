// Package enrichment attaches external news context to ranked trends.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	TavilyAPIURL = "https://api.tavily.com"
)

// TavilyClient provides news search via the Tavily API.
type TavilyClient struct {
	client *resty.Client
	apiKey string
}

// TavilyConfig configures a TavilyClient.
type TavilyConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// TavilySearchResponse represents a search response.
type TavilySearchResponse struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer,omitempty"`
	Results []TavilyResult `json:"results"`
}

// TavilyResult represents a single search result.
type TavilyResult struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
	Published string  `json:"published_date,omitempty"`
}

// NewTavilyClient creates a new Tavily client.
func NewTavilyClient(cfg TavilyConfig) *TavilyClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = TavilyAPIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &TavilyClient{
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetRetryCount(2),
		apiKey: cfg.APIKey,
	}
}

// SearchNews performs a news-topic search.
func (c *TavilyClient) SearchNews(ctx context.Context, query string, maxResults int) (*TavilySearchResponse, error) {
	body := map[string]interface{}{
		"api_key":        c.apiKey,
		"query":          query,
		"search_depth":   "basic",
		"topic":          "news",
		"max_results":    maxResults,
		"include_answer": false,
	}

	log.Debug().
		Str("query", query).
		Int("max_results", maxResults).
		Msg("Tavily search")

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/search")

	if err != nil {
		return nil, fmt.Errorf("tavily search failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("tavily API returned %d: %s", resp.StatusCode(), resp.String())
	}

	var result TavilySearchResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse tavily response: %w", err)
	}

	return &result, nil
}
