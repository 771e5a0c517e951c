package trend

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/trendsignals/internal/llm"
	"github.com/leeaandrob/trendsignals/internal/models"
)

// Briefer writes the three-line briefing shown next to a ranked trend when
// the ranking tier gave no insight.
type Briefer struct {
	llm   llm.Generator
	model string
}

// NewBriefer creates a briefer backed by the local tier.
func NewBriefer(gen llm.Generator, model string) *Briefer {
	if gen == nil {
		gen = llm.Unavailable{Tier: "local"}
	}
	return &Briefer{llm: gen, model: model}
}

// Fill sets RelatedInsight on every candidate that lacks one.
func (b *Briefer) Fill(ctx context.Context, candidates []models.Candidate) {
	for i := range candidates {
		if candidates[i].RelatedInsight != "" {
			continue
		}
		candidates[i].RelatedInsight = b.Brief(ctx, candidates[i])
	}
}

// Brief returns a briefing for one candidate, or a structural sentence built
// from its metrics when the model is unavailable.
func (b *Briefer) Brief(ctx context.Context, c models.Candidate) string {
	evidence := fmt.Sprintf("slope %.2f, search density %.1f, score %.1f", c.Slope, c.SearchDensity, c.FinalScore)
	if len(c.Members) > 0 {
		evidence += ", related keywords: " + strings.Join(c.Members, ", ")
	}

	prompt := fmt.Sprintf(`Trend keyword: %s (%s, %s)
Evidence: %s

Write exactly three short lines in Korean:
1. What is happening.
2. Why it is rising now.
3. What to watch next.
No preamble, no numbering.`, c.Keyword, c.Category, c.Type, evidence)

	content, err := b.llm.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Model:       b.model,
		Temperature: 0.3,
		MaxTokens:   150,
	})
	content = strings.TrimSpace(content)
	if err != nil || content == "" {
		log.Debug().Err(err).Str("keyword", c.Keyword).Msg("Briefing fell back to structural text")
		return StructuralBriefing(c)
	}
	return content
}

// StructuralBriefing describes a trend from its slope and search density.
func StructuralBriefing(c models.Candidate) string {
	desc := "데이터 변동이 감지되었습니다."
	if c.Slope > 0 {
		desc = "상승 추세가 관측됩니다."
	}
	urgency := ""
	if c.SearchDensity > 30 {
		urgency = " (급상승 중)"
	}
	return fmt.Sprintf("%s에 대한 %s%s 분석 데이터 축적 중입니다.", c.Keyword, desc, urgency)
}
