package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/leeaandrob/trendsignals/internal/models"
)

// MemoryHistoryRuns is how many runs of history a MemoryStore keeps.
// One day at the default ten-minute schedule.
const MemoryHistoryRuns = 144

// MemoryStore is a process-local TrendStore, used when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	active   []models.ActiveTrend
	history  []models.ActiveTrend
	runSizes []int
	maxRuns  int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{maxRuns: MemoryHistoryRuns}
}

func (s *MemoryStore) ReplaceActiveTrends(_ context.Context, trends []models.ActiveTrend) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = make([]models.ActiveTrend, len(trends))
	copy(s.active, trends)
	s.history = append(s.history, trends...)
	s.runSizes = append(s.runSizes, len(trends))
	for len(s.runSizes) > s.maxRuns {
		s.history = slices.Delete(s.history, 0, s.runSizes[0])
		s.runSizes = s.runSizes[1:]
	}
	return nil
}

func (s *MemoryStore) ActiveTrends(context.Context) ([]models.ActiveTrend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ActiveTrend, len(s.active))
	copy(out, s.active)
	return out, nil
}

func (s *MemoryStore) TrendByRank(_ context.Context, rank int) (*models.ActiveTrend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.active {
		if t.Rank == rank {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

// KeywordHistory returns the newest rows first.
func (s *MemoryStore) KeywordHistory(_ context.Context, keyword string, limit int) ([]models.ActiveTrend, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.ActiveTrend{}
	for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
		if s.history[i].Keyword == keyword {
			out = append(out, s.history[i])
		}
	}
	return out, nil
}

func (s *MemoryStore) Close(context.Context) error {
	return nil
}
