package trend

import (
	"slices"
	"strings"

	"github.com/leeaandrob/trendsignals/internal/models"
)

// Ingest converts raw provider items into candidates. This is the single
// boundary where free-text type and category are mapped onto the enums.
// A category hint is only honored when it names a known category; SHOPPING
// items without a hint are bucketed as SHOPPING, everything else is left for
// the classifier.
func Ingest(raw models.RawSignal) models.Candidate {
	c := models.Candidate{
		Keyword:           NormalizeKeyword(raw.Keyword),
		Source:            strings.TrimSpace(raw.Source),
		Type:              models.ParseType(raw.Type),
		ZScore:            raw.ZScore,
		Slope:             raw.Slope,
		SearchDensity:     raw.SearchDensity,
		Velocity:          raw.Velocity,
		SNSVolume:         raw.SNSVolume,
		CommunityActivity: raw.CommunityActivity,
		FinanceVolatility: raw.FinanceVolatility,
		RelatedInsight:    strings.TrimSpace(raw.RelatedInsight),
		Link:              strings.TrimSpace(raw.Link),
	}

	if hint := strings.ToUpper(strings.TrimSpace(raw.Category)); hint != "" {
		for _, cat := range models.Categories {
			if string(cat) == hint {
				c.Category = cat
				break
			}
		}
	}
	if c.Category == "" && c.Type == models.TypeShopping {
		c.Category = models.CategoryShopping
	}
	return c
}

// Merge ingests raw items from every provider and folds items that share a
// normalized keyword. Per-channel metrics keep the maximum, sources are
// unioned, the strongest type wins and the first non-empty insight/link is
// kept. Input order of first appearance is preserved; empty keywords are
// dropped.
func Merge(raw []models.RawSignal) []models.Candidate {
	merged := make([]models.Candidate, 0, len(raw))
	index := make(map[string]int, len(raw))
	sources := make(map[string][]string, len(raw))

	for _, r := range raw {
		c := Ingest(r)
		if c.Keyword == "" {
			continue
		}
		key := foldKey(c.Keyword)

		i, ok := index[key]
		if !ok {
			index[key] = len(merged)
			if c.Source != "" {
				sources[key] = []string{c.Source}
			}
			merged = append(merged, c)
			continue
		}

		m := &merged[i]
		m.ZScore = max(m.ZScore, c.ZScore)
		m.Slope = max(m.Slope, c.Slope)
		m.SearchDensity = max(m.SearchDensity, c.SearchDensity)
		m.Velocity = max(m.Velocity, c.Velocity)
		m.SNSVolume = max(m.SNSVolume, c.SNSVolume)
		m.CommunityActivity = max(m.CommunityActivity, c.CommunityActivity)
		m.FinanceVolatility = max(m.FinanceVolatility, c.FinanceVolatility)
		if c.Type.Severity() > m.Type.Severity() {
			m.Type = c.Type
		}
		if m.Category == "" {
			m.Category = c.Category
		}
		if m.RelatedInsight == "" {
			m.RelatedInsight = c.RelatedInsight
		}
		if m.Link == "" {
			m.Link = c.Link
		}
		if c.Source != "" && !slices.Contains(sources[key], c.Source) {
			sources[key] = append(sources[key], c.Source)
			m.Source = strings.Join(sources[key], ", ")
		}
	}
	return merged
}
