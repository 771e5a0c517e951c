package trend

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/trendsignals/internal/llm"
	"github.com/leeaandrob/trendsignals/internal/models"
	"github.com/leeaandrob/trendsignals/internal/stats"
)

// MaxRanked is the number of trends a ranking run returns.
const MaxRanked = 10

const (
	heuristicBase  = 70.0
	heuristicDecay = 2.0
	heuristicCap   = 99.0
)

var typeBonus = map[models.TrendType]float64{
	models.TypeBreaking: 20,
	models.TypeViral:    15,
	models.TypeMacro:    10,
}

// RankTier is one model tier of the ranking chain.
type RankTier struct {
	Name  string
	LLM   llm.Generator
	Model string
}

// Ranker selects and scores the final top trends. Tiers are tried in order
// and the deterministic heuristic closes the chain.
type Ranker struct {
	tiers []RankTier
}

// NewRanker creates a ranker. Tiers with a nil generator are skipped.
func NewRanker(tiers ...RankTier) *Ranker {
	r := &Ranker{}
	for _, t := range tiers {
		if t.LLM != nil {
			r.tiers = append(r.tiers, t)
		}
	}
	return r
}

// rankEntry is one element of the strict-JSON ranking answer.
type rankEntry struct {
	OriginalID *flexIndex `json:"original_id"`
	Score      float64    `json:"score"`
	Insight    string     `json:"insight"`
}

// flexIndex accepts 3, 3.0 and "3". Anything else decodes to -1.
type flexIndex int

func (f *flexIndex) UnmarshalJSON(b []byte) error {
	n, err := strconv.ParseFloat(string(bytes.Trim(b, `"`)), 64)
	if err != nil || n != float64(int(n)) {
		*f = -1
		return nil
	}
	*f = flexIndex(n)
	return nil
}

// Rank returns at most MaxRanked candidates sorted by descending score.
// Empty input returns an empty list without calling any tier.
func (r *Ranker) Rank(ctx context.Context, candidates []models.Candidate, report string) []models.Candidate {
	if len(candidates) == 0 {
		return []models.Candidate{}
	}

	prompt := rankPrompt(candidates, report)
	for _, tier := range r.tiers {
		ranked, err := r.rankWithTier(ctx, tier, candidates, prompt)
		if err != nil {
			log.Warn().Err(err).Str("stage", "rank").Str("tier", tier.Name).Msg("Ranking tier failed")
			continue
		}
		log.Debug().Str("tier", tier.Name).Int("ranked", len(ranked)).Msg("Trends ranked")
		return ranked
	}

	log.Warn().Str("stage", "rank").Msg("All ranking tiers failed, using heuristic")
	return RankHeuristic(candidates)
}

func (r *Ranker) rankWithTier(ctx context.Context, tier RankTier, candidates []models.Candidate, prompt string) ([]models.Candidate, error) {
	content, err := tier.LLM.Generate(ctx, llm.Request{
		SystemPrompt: "You are the chief editor of a trend desk. You only answer with strict JSON.",
		Prompt:       prompt,
		Model:        tier.Model,
		Temperature:  0.2,
		MaxTokens:    1500,
		Cacheable: func(text string) bool {
			_, err := parseRanking(text, candidates)
			return err == nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("rank call: %w", err)
	}
	return parseRanking(content, candidates)
}

// parseRanking maps a ranking answer onto candidates by index. Invalid and
// duplicate indices are skipped.
func parseRanking(content string, candidates []models.Candidate) ([]models.Candidate, error) {
	var entries []rankEntry
	if err := decodeArray(content, &entries); err != nil {
		return nil, err
	}

	ranked := make([]models.Candidate, 0, MaxRanked)
	taken := make(map[int]bool, len(entries))
	for _, e := range entries {
		if len(ranked) >= MaxRanked {
			break
		}
		if e.OriginalID == nil {
			continue
		}
		idx := int(*e.OriginalID)
		if idx < 0 || idx >= len(candidates) || taken[idx] {
			continue
		}
		taken[idx] = true

		c := candidates[idx].Clone()
		c.FinalScore = stats.Round2(stats.Clamp(e.Score, 0, 100))
		if insight := strings.TrimSpace(e.Insight); insight != "" {
			c.RelatedInsight = insight
		}
		ranked = append(ranked, c)
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("rank answer had no valid entries out of %d", len(entries))
	}

	sortByScore(ranked)
	return ranked, nil
}

func rankPrompt(candidates []models.Candidate, report string) string {
	var list strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&list, "[%d] %s | source: %s | category: %s | type: %s | score: %.2f\n",
			i, c.Keyword, c.Source, c.Category, c.Type, c.FinalScore)
	}

	return fmt.Sprintf(`Candidate trends (index-tagged):
%s
Expert momentum report:
%s

Select the %d most important trends. For each, give a score from 0 to 100 and a one-sentence insight.
Return ONLY a JSON array in this exact format:
[{"original_id": 0, "score": 92.5, "insight": "one sentence"}]
"original_id" must be the bracketed index from the list above.`, list.String(), report, MaxRanked)
}

// RankHeuristic scores candidates by base 70 plus a type bonus minus two
// points per position, capped at 99, and returns the top MaxRanked.
func RankHeuristic(candidates []models.Candidate) []models.Candidate {
	ranked := make([]models.Candidate, 0, len(candidates))
	for i, c := range candidates {
		c = c.Clone()
		score := heuristicBase + typeBonus[c.Type] - heuristicDecay*float64(i)
		c.FinalScore = stats.Clamp(score, 0, heuristicCap)
		ranked = append(ranked, c)
	}

	sortByScore(ranked)
	if len(ranked) > MaxRanked {
		ranked = ranked[:MaxRanked]
	}
	return ranked
}

func sortByScore(candidates []models.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FinalScore > candidates[j].FinalScore
	})
}
