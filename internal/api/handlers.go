package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/leeaandrob/trendsignals/internal/models"
	"github.com/leeaandrob/trendsignals/internal/storage"
)

// Handlers holds the API handlers.
type Handlers struct {
	store storage.TrendStore
}

// NewHandlers creates new API handlers.
func NewHandlers(store storage.TrendStore) *Handlers {
	return &Handlers{store: store}
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func getLimit(r *http.Request, defaultLimit int) int {
	limit := defaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	return limit
}

// ============================================================================
// TREND HANDLERS
// ============================================================================

// GetActiveTrends returns the ranked active trends, optionally filtered by
// ?category= and ?status=.
func (h *Handlers) GetActiveTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := h.store.ActiveTrends(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch trends")
		return
	}

	category := strings.ToUpper(r.URL.Query().Get("category"))
	status := strings.ToUpper(r.URL.Query().Get("status"))
	if category != "" || status != "" {
		filtered := make([]models.ActiveTrend, 0, len(trends))
		for _, t := range trends {
			if category != "" && string(t.Category) != category {
				continue
			}
			if status != "" && string(t.Status) != status {
				continue
			}
			filtered = append(filtered, t)
		}
		trends = filtered
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trends": trends,
		"count":  len(trends),
	})
}

// GetTrendByRank returns a single active trend.
func (h *Handlers) GetTrendByRank(w http.ResponseWriter, r *http.Request) {
	rank, err := strconv.Atoi(chi.URLParam(r, "rank"))
	if err != nil || rank < 1 || rank > models.MaxActiveTrends {
		respondError(w, http.StatusBadRequest, "Rank must be between 1 and 10")
		return
	}

	trend, err := h.store.TrendByRank(r.Context(), rank)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Trend not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch trend")
		return
	}

	respondJSON(w, http.StatusOK, trend)
}

// GetKeywordHistory returns past rankings of a keyword, newest first.
func (h *Handlers) GetKeywordHistory(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(chi.URLParam(r, "keyword"))
	if keyword == "" {
		respondError(w, http.StatusBadRequest, "Keyword is required")
		return
	}

	history, err := h.store.KeywordHistory(r.Context(), keyword, getLimit(r, storage.DefaultHistoryLimit))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"keyword": keyword,
		"history": history,
		"count":   len(history),
	})
}

// HealthCheck returns service health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "trendsignals",
	})
}
