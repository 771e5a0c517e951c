package trend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leeaandrob/trendsignals/internal/models"
)

func TestAnalyst_Analyze(t *testing.T) {
	gen := replying("  Crypto and chips move together.\nSentiment: BULLISH  ")
	c := cand("비트코인", 10)
	c.Category = models.CategoryFinance

	report := NewAnalyst(gen, "gemini-2.0-flash").Analyze(context.Background(), []models.Candidate{c})

	assert.Equal(t, "Crypto and chips move together.\nSentiment: BULLISH", report)
	assert.Contains(t, gen.requests[0].Prompt, "- 비트코인 | source: Naver | category: FINANCE")
	assert.Equal(t, "gemini-2.0-flash", gen.requests[0].Model)
}

func TestAnalyst_Placeholder(t *testing.T) {
	in := []models.Candidate{cand("a", 1)}

	assert.Equal(t, AnalysisUnavailable, NewAnalyst(failing(), "").Analyze(context.Background(), in))
	assert.Equal(t, AnalysisUnavailable, NewAnalyst(replying("   "), "").Analyze(context.Background(), in))
	assert.Equal(t, AnalysisUnavailable, NewAnalyst(nil, "").Analyze(context.Background(), in))

	gen := replying("report")
	assert.Equal(t, AnalysisUnavailable, NewAnalyst(gen, "").Analyze(context.Background(), nil))
	assert.Zero(t, gen.calls())
}
