package trend

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/trendsignals/internal/llm"
	"github.com/leeaandrob/trendsignals/internal/models"
)

// MaxRefined caps the refinement output.
const MaxRefined = 15

const refineSystemPrompt = "You are a trend editor. You only answer with a JSON array of strings."

// Refiner deduplicates and filters candidates with the local model tier and
// falls back to deterministic prefix dedup.
type Refiner struct {
	llm   llm.Generator
	model string
}

// NewRefiner creates a refiner. A nil generator always takes the fallback.
func NewRefiner(gen llm.Generator, model string) *Refiner {
	if gen == nil {
		gen = llm.Unavailable{Tier: "local"}
	}
	return &Refiner{llm: gen, model: model}
}

// Refine returns at most MaxRefined deduplicated candidates. It never fails.
func (r *Refiner) Refine(ctx context.Context, candidates []models.Candidate) []models.Candidate {
	if len(candidates) == 0 {
		return []models.Candidate{}
	}

	refined, err := r.refineWithModel(ctx, candidates)
	if err != nil {
		log.Warn().Err(err).Str("stage", "refine").Msg("Refinement fell back to prefix dedup")
		return DedupByPrefix(candidates, MaxRefined)
	}

	log.Debug().
		Int("input", len(candidates)).
		Int("output", len(refined)).
		Msg("Candidates refined")
	return refined
}

func (r *Refiner) refineWithModel(ctx context.Context, candidates []models.Candidate) ([]models.Candidate, error) {
	var list strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&list, "- %s (%s)\n", c.Keyword, c.Source)
	}

	prompt := fmt.Sprintf(`Below are raw trend keywords collected from several sources.

%s
Tasks:
1. Remove duplicates and synonyms, keeping the most specific wording.
2. Drop generic or meaningless keywords (e.g. "news", "today", "issue").
3. Keep at most %d keywords, most important first.
4. Keep every keyword in its original language and spelling.

Respond with a JSON array of strings only, e.g. ["keyword one", "keyword two"].`, list.String(), MaxRefined)

	content, err := r.llm.Generate(ctx, llm.Request{
		SystemPrompt: refineSystemPrompt,
		Prompt:       prompt,
		Model:        r.model,
		Temperature:  0.1,
		MaxTokens:    500,
		Cacheable: func(text string) bool {
			_, err := parseRefined(text, candidates)
			return err == nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("refine call: %w", err)
	}
	return parseRefined(content, candidates)
}

func parseRefined(content string, candidates []models.Candidate) ([]models.Candidate, error) {
	var keywords []string
	if err := decodeArray(content, &keywords); err != nil {
		return nil, err
	}

	refined := matchKeywords(candidates, keywords, MaxRefined)
	if len(refined) == 0 {
		return nil, fmt.Errorf("refine matched no candidates from %d keywords", len(keywords))
	}
	return refined, nil
}

// matchKeywords maps model keywords back onto candidates by substring
// containment in either direction. The first unused match wins.
func matchKeywords(candidates []models.Candidate, keywords []string, limit int) []models.Candidate {
	used := make([]bool, len(candidates))
	folded := make([]string, len(candidates))
	for i, c := range candidates {
		folded[i] = foldKey(c.Keyword)
	}

	out := make([]models.Candidate, 0, min(limit, len(keywords)))
	for _, kw := range keywords {
		if len(out) >= limit {
			break
		}
		kw = foldKey(kw)
		if kw == "" {
			continue
		}
		for i := range candidates {
			if used[i] || folded[i] == "" {
				continue
			}
			if strings.Contains(folded[i], kw) || strings.Contains(kw, folded[i]) {
				used[i] = true
				out = append(out, candidates[i].Clone())
				break
			}
		}
	}
	return out
}

// DedupByPrefix keeps the first candidate per case-folded ten-rune keyword
// prefix, in input order, capped at limit. Empty keywords are dropped.
func DedupByPrefix(candidates []models.Candidate, limit int) []models.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]models.Candidate, 0, min(limit, len(candidates)))
	for _, c := range candidates {
		if len(out) >= limit {
			break
		}
		key := prefixKey(c.Keyword)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c.Clone())
	}
	return out
}
