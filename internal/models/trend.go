package models

import (
	"time"
)

// MaxActiveTrends is the number of ranked rows kept in the active table.
const MaxActiveTrends = 10

// ActiveTrend is one persisted row of the ranked output, keyed by rank.
type ActiveTrend struct {
	Rank            int                `bson:"rank" json:"rank"`
	Keyword         string             `bson:"keyword" json:"keyword"`
	AvgScore        float64            `bson:"avg_score" json:"avg_score"`
	RelatedInsight  string             `bson:"related_insight" json:"related_insight"`
	Status          TrendType          `bson:"status" json:"status"`
	Category        Category           `bson:"category" json:"category"`
	Source          string             `bson:"source" json:"source"`
	Link            string             `bson:"link" json:"link"`
	SignalBreakdown map[string]float64 `bson:"signal_breakdown" json:"signal_breakdown"`
	Members         []string           `bson:"members,omitempty" json:"members,omitempty"`
	RunID           string             `bson:"run_id" json:"run_id"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}

// ActiveTrendsFrom converts a ranked list into rank-keyed rows (top 10).
func ActiveTrendsFrom(ranked []Candidate, runID string, now time.Time) []ActiveTrend {
	n := len(ranked)
	if n > MaxActiveTrends {
		n = MaxActiveTrends
	}

	rows := make([]ActiveTrend, 0, n)
	for i := 0; i < n; i++ {
		c := ranked[i]
		insight := c.RelatedInsight
		if insight == "" {
			insight = "AI Detection"
		}
		link := c.Link
		if link == "" {
			link = "#"
		}
		source := c.Source
		if source == "" {
			source = "System"
		}
		breakdown := c.SignalBreakdown
		if breakdown == nil {
			breakdown = map[string]float64{}
		}
		rows = append(rows, ActiveTrend{
			Rank:            i + 1,
			Keyword:         c.Keyword,
			AvgScore:        c.FinalScore,
			RelatedInsight:  insight,
			Status:          c.Type,
			Category:        c.Category,
			Source:          source,
			Link:            link,
			SignalBreakdown: breakdown,
			Members:         c.Members,
			RunID:           runID,
			CreatedAt:       now,
		})
	}
	return rows
}
