// Package storage persists the ranked output of the trend pipeline.
package storage

import (
	"context"
	"errors"

	"github.com/leeaandrob/trendsignals/internal/models"
)

// DefaultHistoryLimit is used when KeywordHistory gets a non-positive limit.
const DefaultHistoryLimit = 24

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// TrendStore keeps the active trends table: rows keyed by rank 1..10,
// replaced wholesale on every run.
type TrendStore interface {
	ReplaceActiveTrends(ctx context.Context, trends []models.ActiveTrend) error
	ActiveTrends(ctx context.Context) ([]models.ActiveTrend, error)
	TrendByRank(ctx context.Context, rank int) (*models.ActiveTrend, error)
	KeywordHistory(ctx context.Context, keyword string, limit int) ([]models.ActiveTrend, error)
	Close(ctx context.Context) error
}
