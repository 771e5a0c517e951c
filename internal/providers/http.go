// Package providers implements raw signal providers for the trend pipeline.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/leeaandrob/trendsignals/internal/models"
	"github.com/leeaandrob/trendsignals/internal/stats"
)

const (
	DefaultTimeout = 30 * time.Second

	// Requests per second allowed against a single feed.
	DefaultRateLimit = 1.0
)

// HTTPConfig configures an HTTPProvider.
type HTTPConfig struct {
	Name      string
	URL       string
	Source    string // default source label for items that carry none
	Timeout   time.Duration
	RateLimit float64
	Retries   int
}

// HTTPProvider fetches raw signals from a JSON feed. The feed answers with
// either an array of items or an object with an "items" array.
type HTTPProvider struct {
	name    string
	url     string
	source  string
	client  *resty.Client
	limiter *rate.Limiter
}

// NewHTTPProvider creates a feed provider.
func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.Name == "" {
		cfg.Name = cfg.URL
	}

	return &HTTPProvider{
		name:   cfg.Name,
		url:    cfg.URL,
		source: cfg.Source,
		client: resty.New().
			SetTimeout(cfg.Timeout).
			SetRetryCount(cfg.Retries).
			SetRetryWaitTime(1 * time.Second),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}
}

// Name returns the provider name.
func (p *HTTPProvider) Name() string {
	return p.name
}

// feedItem is a raw item plus optional series from which metrics are derived.
type feedItem struct {
	models.RawSignal

	Current      *float64  `json:"current,omitempty"`
	History      []float64 `json:"history,omitempty"`
	Previous     *float64  `json:"previous,omitempty"`
	DeltaMinutes float64   `json:"delta_minutes,omitempty"`
}

type feedEnvelope struct {
	Items []feedItem `json:"items"`
}

// Fetch requests the feed, passing seed as the "q" query parameter.
func (p *HTTPProvider) Fetch(ctx context.Context, seed string) ([]models.RawSignal, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req := p.client.R().SetContext(ctx)
	if seed = strings.TrimSpace(seed); seed != "" {
		req.SetQueryParam("q", seed)
	}

	resp, err := req.Get(p.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", p.name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s returned %d: %s", p.name, resp.StatusCode(), resp.String())
	}

	items, err := decodeFeed(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", p.name, err)
	}

	signals := make([]models.RawSignal, 0, len(items))
	for _, item := range items {
		sig := derive(item)
		if sig.Source == "" {
			sig.Source = p.source
		}
		if sig.Source == "" {
			sig.Source = p.name
		}
		signals = append(signals, sig)
	}

	log.Debug().
		Str("provider", p.name).
		Int("items", len(signals)).
		Msg("Fetched raw signals")

	return signals, nil
}

func decodeFeed(body []byte) ([]feedItem, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var items []feedItem
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var env feedEnvelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}

// derive fills z-score, slope and velocity from series when the feed did not
// precompute them.
func derive(item feedItem) models.RawSignal {
	sig := item.RawSignal
	if item.Current == nil {
		return sig
	}
	current := *item.Current

	if sig.ZScore == 0 && len(item.History) > 0 {
		sig.ZScore = stats.ZScore(current, item.History, stats.DefaultWindow)
	}
	if sig.Slope == 0 && len(item.History) > 0 {
		series := append(append([]float64(nil), item.History...), current)
		sig.Slope = stats.Slope(series)
	}
	if sig.Velocity == 0 && item.Previous != nil {
		sig.Velocity = stats.Velocity(current, *item.Previous, item.DeltaMinutes)
	}
	return sig
}
