package trend

import (
	"strings"

	"github.com/leeaandrob/trendsignals/internal/models"
)

// ClassifierConfig holds the marker lists used to categorize candidates.
type ClassifierConfig struct {
	MarketMarkers []string
	Keywords      map[models.Category][]string
	Order         []models.Category
}

// DefaultClassifierConfig returns the built-in marker lists.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		MarketMarkers: models.DefaultMarketMarkers,
		Keywords:      models.DefaultCategoryKeywords,
		Order:         models.CategoryKeywordOrder,
	}
}

// Classifier maps keyword/source text to a category. It is pure and safe for
// concurrent use.
type Classifier struct {
	markers  []string
	keywords map[models.Category][]string
	order    []models.Category
}

// NewClassifier creates a classifier with lower-cased marker lists. Keyword
// entries are normalized like ingested keywords so both share one form.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	c := &Classifier{
		markers:  lowerAll(cfg.MarketMarkers, nil),
		keywords: make(map[models.Category][]string, len(cfg.Keywords)),
		order:    cfg.Order,
	}
	for cat, words := range cfg.Keywords {
		c.keywords[cat] = lowerAll(words, NormalizeKeyword)
	}
	return c
}

// Categorize returns FINANCE for market sources, then the first keyword-list
// match in order, else TECH.
func (c *Classifier) Categorize(keyword, source string) models.Category {
	sourceLower := strings.ToLower(source)
	for _, marker := range c.markers {
		if strings.Contains(sourceLower, marker) {
			return models.CategoryFinance
		}
	}

	keywordLower := strings.ToLower(NormalizeKeyword(keyword))
	for _, cat := range c.order {
		for _, word := range c.keywords[cat] {
			if strings.Contains(keywordLower, word) {
				return cat
			}
		}
	}

	return models.CategoryTech
}

func lowerAll(words []string, normalize func(string) string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if normalize != nil {
			w = normalize(w)
		}
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
