package trend

import (
	"context"
	"errors"
	"sync"

	"github.com/leeaandrob/trendsignals/internal/llm"
	"github.com/leeaandrob/trendsignals/internal/models"
)

var errTierDown = errors.New("tier down")

// fakeGenerator replays canned answers and records every request.
type fakeGenerator struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []llm.Request
}

func failing() *fakeGenerator { return &fakeGenerator{err: errTierDown} }

func replying(replies ...string) *fakeGenerator { return &fakeGenerator{replies: replies} }

func (f *fakeGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", llm.ErrEmptyResponse
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func cand(keyword string, score float64) models.Candidate {
	return models.Candidate{Keyword: keyword, Source: "Naver", FinalScore: score, Type: models.TypeRising}
}

func keywords(candidates []models.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Keyword
	}
	return out
}
