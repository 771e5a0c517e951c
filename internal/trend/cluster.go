package trend

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/trendsignals/internal/llm"
	"github.com/leeaandrob/trendsignals/internal/models"
)

// DefaultClusterLimit caps how many candidates are sent to the model.
const DefaultClusterLimit = 20

type clusterGroup struct {
	Representative string   `json:"representative"`
	Members        []string `json:"members"`
}

// Clusterer merges near-duplicate keywords into representative topics.
type Clusterer struct {
	llm   llm.Generator
	model string
}

// NewClusterer creates a clusterer backed by the local tier.
func NewClusterer(gen llm.Generator, model string) *Clusterer {
	if gen == nil {
		gen = llm.Unavailable{Tier: "local"}
	}
	return &Clusterer{llm: gen, model: model}
}

// Cluster groups the first limit candidates. Every input keyword ends up in
// exactly one output item, either standalone or as a cluster member. On any
// failure the input is returned unchanged.
func (c *Clusterer) Cluster(ctx context.Context, candidates []models.Candidate, limit int) []models.Candidate {
	if len(candidates) == 0 {
		return []models.Candidate{}
	}
	if limit <= 0 {
		limit = DefaultClusterLimit
	}
	head := candidates[:min(limit, len(candidates))]

	groups, err := c.requestGroups(ctx, head)
	if err != nil {
		log.Warn().Err(err).Str("stage", "cluster").Msg("Clustering skipped")
		return models.Clone(candidates)
	}

	claimed := make([]bool, len(head))
	out := make([]models.Candidate, 0, len(candidates))

	for _, g := range groups {
		var matched []int
		for _, member := range g.Members {
			member = strings.TrimSpace(member)
			for i := range head {
				if !claimed[i] && head[i].Keyword == member {
					claimed[i] = true
					matched = append(matched, i)
					break
				}
			}
		}
		if len(matched) == 0 {
			continue
		}

		best := matched[0]
		members := make([]string, 0, len(matched))
		for _, i := range matched {
			if head[i].FinalScore > head[best].FinalScore {
				best = i
			}
			members = append(members, head[i].Keyword)
		}

		fused := head[best].Clone()
		if rep := strings.TrimSpace(g.Representative); rep != "" {
			fused.Keyword = rep
		}
		fused.Members = members
		out = append(out, fused)
	}

	for i := range head {
		if !claimed[i] {
			out = append(out, head[i].Clone())
		}
	}
	for _, rest := range candidates[len(head):] {
		out = append(out, rest.Clone())
	}

	sortByScore(out)

	log.Debug().
		Int("input", len(candidates)).
		Int("output", len(out)).
		Msg("Candidates clustered")
	return out
}

func (c *Clusterer) requestGroups(ctx context.Context, head []models.Candidate) ([]clusterGroup, error) {
	keywords := make([]string, len(head))
	for i, cand := range head {
		keywords[i] = cand.Keyword
	}

	prompt := fmt.Sprintf(`Group these trend keywords into topics that describe the same event:
%s

Rules:
- "representative" must be a specific, concrete label (a named entity or event), never a generic category like "Economy" or "Entertainment".
- "members" must copy keywords exactly as written above.
- Keywords that do not belong to any group may be left out.

Return ONLY a JSON array: [{"representative": "label", "members": ["keyword", "keyword"]}]`,
		"- "+strings.Join(keywords, "\n- "))

	content, err := c.llm.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Model:       c.model,
		Temperature: 0.1,
		MaxTokens:   500,
		Options:     map[string]any{"num_ctx": 4096},
		Cacheable: func(text string) bool {
			var groups []clusterGroup
			return decodeArray(text, &groups) == nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cluster call: %w", err)
	}

	var groups []clusterGroup
	if err := decodeArray(content, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
