// Package notify sends alerts about breakout trends.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/trendsignals/internal/models"
)

const DefaultTelegramURL = "https://api.telegram.org"

// Config configures the notifier. Without a token alerts are only logged.
type Config struct {
	TelegramToken  string
	TelegramChatID string
	BaseURL        string
	Timeout        time.Duration
}

// Notifier alerts once per keyword for the lifetime of the process.
type Notifier struct {
	client *resty.Client
	token  string
	chatID string

	mu   sync.Mutex
	sent map[string]struct{}
}

// New creates a notifier.
func New(cfg Config) *Notifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTelegramURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Notifier{
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetHeader("Content-Type", "application/json"),
		token:  cfg.TelegramToken,
		chatID: cfg.TelegramChatID,
		sent:   make(map[string]struct{}),
	}
}

// Enabled reports whether alerts leave the process.
func (n *Notifier) Enabled() bool {
	return n.token != "" && n.chatID != ""
}

// Alert sends one message for a trend unless its keyword was already alerted.
func (n *Notifier) Alert(ctx context.Context, trend models.Candidate) error {
	key := strings.ToLower(strings.TrimSpace(trend.Keyword))

	n.mu.Lock()
	if _, done := n.sent[key]; done {
		n.mu.Unlock()
		return nil
	}
	n.sent[key] = struct{}{}
	n.mu.Unlock()

	log.Info().
		Str("keyword", trend.Keyword).
		Float64("score", trend.FinalScore).
		Str("status", string(trend.Type)).
		Msg("Trend alert")

	if !n.Enabled() {
		return nil
	}

	if err := n.send(ctx, formatAlert(trend)); err != nil {
		n.mu.Lock()
		delete(n.sent, key)
		n.mu.Unlock()
		return err
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, text string) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id": n.chatID,
			"text":    text,
		}).
		Post("/bot" + n.token + "/sendMessage")
	if err != nil {
		return fmt.Errorf("failed to send telegram alert: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func formatAlert(t models.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s (%.1f)\n", t.Type, t.Keyword, t.FinalScore)
	fmt.Fprintf(&b, "Category: %s | Source: %s\n", t.Category, t.Source)
	if t.RelatedInsight != "" {
		b.WriteString(t.RelatedInsight)
		b.WriteString("\n")
	}
	if t.Link != "" {
		b.WriteString(t.Link)
	}
	return strings.TrimSpace(b.String())
}
