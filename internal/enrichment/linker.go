package enrichment

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/trendsignals/internal/models"
)

// NewsSearcher finds news articles for a query.
type NewsSearcher interface {
	SearchNews(ctx context.Context, query string, maxResults int) (*TavilySearchResponse, error)
}

// NewsLinker fills the display link of ranked trends with the most relevant
// news article.
type NewsLinker struct {
	search NewsSearcher
}

// NewNewsLinker creates a linker.
func NewNewsLinker(search NewsSearcher) *NewsLinker {
	return &NewsLinker{search: search}
}

// Enrich sets Link on every trend that has none. Search failures leave the
// trend untouched.
func (l *NewsLinker) Enrich(ctx context.Context, trends []models.Candidate) {
	for i := range trends {
		if trends[i].Link != "" {
			continue
		}

		resp, err := l.search.SearchNews(ctx, trends[i].Keyword, 3)
		if err != nil {
			log.Warn().Err(err).Str("keyword", trends[i].Keyword).Msg("News lookup failed")
			continue
		}

		if link := bestLink(resp.Results); link != "" {
			trends[i].Link = link
		}
	}
}

func bestLink(results []TavilyResult) string {
	best := -1
	for i, r := range results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		if best == -1 || r.Score > results[best].Score {
			best = i
		}
	}
	if best == -1 {
		return ""
	}
	return results[best].URL
}
