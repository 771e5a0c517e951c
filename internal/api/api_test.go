package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeaandrob/trendsignals/internal/llm"
	"github.com/leeaandrob/trendsignals/internal/models"
	"github.com/leeaandrob/trendsignals/internal/scheduler"
	"github.com/leeaandrob/trendsignals/internal/storage"
	"github.com/leeaandrob/trendsignals/internal/trend"
)

type stubRunner struct {
	seed string
	err  error
}

func (s *stubRunner) Run(_ context.Context, seed string) (*trend.Result, error) {
	s.seed = seed
	if s.err != nil {
		return nil, s.err
	}
	return &trend.Result{RunID: "run-1", Seed: seed, Trends: []models.Candidate{{Keyword: "bitcoin"}}}, nil
}

type stubCache struct{}

func (stubCache) Stats() llm.CacheStats {
	return llm.CacheStats{Name: "local", Hits: 3, Misses: 1, HitRate: 0.75}
}

func seededStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	store := storage.NewMemoryStore()
	ranked := []models.Candidate{
		{Keyword: "bitcoin", FinalScore: 91, Type: models.TypeBreaking, Category: models.CategoryFinance},
		{Keyword: "weather", FinalScore: 60, Type: models.TypeNews, Category: models.CategoryTech},
	}
	require.NoError(t, store.ReplaceActiveTrends(context.Background(),
		models.ActiveTrendsFrom(ranked, "run-0", time.Now().UTC())))
	return store
}

func do(t *testing.T, srv *Server, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestAPI_Trends(t *testing.T) {
	srv := NewServer(Deps{Store: seededStore(t)}, ":0")

	rec, body := do(t, srv, http.MethodGet, "/api/trends")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, body["count"])

	_, body = do(t, srv, http.MethodGet, "/api/trends?category=finance")
	assert.Equal(t, 1.0, body["count"])

	_, body = do(t, srv, http.MethodGet, "/api/trends?status=NEWS")
	require.Equal(t, 1.0, body["count"])
	first := body["trends"].([]any)[0].(map[string]any)
	assert.Equal(t, "weather", first["keyword"])

	rec, body = do(t, srv, http.MethodGet, "/api/trends/1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bitcoin", body["keyword"])
	assert.Equal(t, "AI Detection", body["related_insight"])

	rec, _ = do(t, srv, http.MethodGet, "/api/trends/5")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, srv, http.MethodGet, "/api/trends/zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(t, srv, http.MethodGet, "/api/trends/history/bitcoin")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, body["count"])
}

func TestAPI_Health(t *testing.T) {
	rec, body := do(t, NewServer(Deps{Store: storage.NewMemoryStore()}, ":0"), http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestAPI_AdminRun(t *testing.T) {
	runner := &stubRunner{}
	srv := NewServer(Deps{Store: storage.NewMemoryStore(), Runner: runner}, ":0")

	rec, body := do(t, srv, http.MethodPost, "/api/admin/run?seed=bitcoin")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bitcoin", runner.seed)
	assert.Equal(t, "run-1", body["run_id"])

	runner.err = errors.New("cancelled")
	rec, _ = do(t, srv, http.MethodPost, "/api/admin/run")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec, _ = do(t, NewServer(Deps{Store: storage.NewMemoryStore()}, ":0"), http.MethodPost, "/api/admin/run")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPI_AdminJobs(t *testing.T) {
	sched := scheduler.NewScheduler(time.Hour)
	done := make(chan struct{}, 1)
	sched.AddJob(&scheduler.Job{
		Name:     "collect-trends",
		Schedule: scheduler.Every(10 * time.Minute),
		Handler: func(context.Context) error {
			done <- struct{}{}
			return nil
		},
	})
	defer sched.Stop()

	srv := NewServer(Deps{Store: storage.NewMemoryStore(), Scheduler: sched}, ":0")

	rec, body := do(t, srv, http.MethodGet, "/api/admin/jobs")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, body["count"])

	rec, _ = do(t, srv, http.MethodPost, "/api/admin/jobs/collect-trends/run")
	assert.Equal(t, http.StatusOK, rec.Code)
	<-done

	rec, _ = do(t, srv, http.MethodPost, "/api/admin/jobs/missing/run")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_AdminCache(t *testing.T) {
	srv := NewServer(Deps{Store: storage.NewMemoryStore(), Caches: []CacheReporter{stubCache{}}}, ":0")

	rec, body := do(t, srv, http.MethodGet, "/api/admin/cache")
	assert.Equal(t, http.StatusOK, rec.Code)
	caches := body["caches"].([]any)
	require.Len(t, caches, 1)
	assert.Equal(t, 0.75, caches[0].(map[string]any)["hit_rate"])
}
