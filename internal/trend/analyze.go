package trend

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/trendsignals/internal/llm"
	"github.com/leeaandrob/trendsignals/internal/models"
)

// AnalysisUnavailable is the report placeholder used whenever analysis fails.
const AnalysisUnavailable = "analysis unavailable"

// Analyst writes the momentum report that accompanies a ranking run.
type Analyst struct {
	llm   llm.Generator
	model string
}

// NewAnalyst creates an analyst backed by the cloud tier.
func NewAnalyst(gen llm.Generator, model string) *Analyst {
	if gen == nil {
		gen = llm.Unavailable{Tier: "cloud"}
	}
	return &Analyst{llm: gen, model: model}
}

// Analyze returns a short free-text report. Failures yield AnalysisUnavailable.
func (a *Analyst) Analyze(ctx context.Context, candidates []models.Candidate) string {
	if len(candidates) == 0 {
		return AnalysisUnavailable
	}

	var list strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&list, "- %s | source: %s | category: %s\n", c.Keyword, c.Source, c.Category)
	}

	prompt := fmt.Sprintf(`Current trend signals:
%s
Write a short momentum report:
1. Group the signals into 2-3 logical clusters.
2. Describe the cross-impact between those clusters.
3. End with one line "Sentiment: BULLISH", "Sentiment: BEARISH" or "Sentiment: NEUTRAL".

Keep it under 200 words.`, list.String())

	report, err := a.llm.Generate(ctx, llm.Request{
		SystemPrompt: "You are a senior market strategist who connects search, social and market signals.",
		Prompt:       prompt,
		Model:        a.model,
		Temperature:  0.4,
		MaxTokens:    600,
	})
	report = strings.TrimSpace(report)
	if err != nil || report == "" {
		log.Warn().Err(err).Str("stage", "analyze").Msg("Momentum report unavailable")
		return AnalysisUnavailable
	}
	return report
}
