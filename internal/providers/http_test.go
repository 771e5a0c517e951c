package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProvider_FetchArray(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"keyword": "비트코인 급등", "source": "X", "type": "VIRAL", "z_score": 3.0, "slope": 0.5},
			{"keyword": "오늘 날씨", "type": "NEWS"}
		]`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{Name: "social", URL: srv.URL, Source: "Naver", RateLimit: 100})
	items, err := p.Fetch(context.Background(), " 비트코인 ")
	require.NoError(t, err)

	assert.Equal(t, "비트코인", gotQuery)
	require.Len(t, items, 2)
	assert.Equal(t, "X", items[0].Source)
	assert.Equal(t, 3.0, items[0].ZScore)
	assert.Equal(t, "VIRAL", items[0].Type)
	assert.Equal(t, "Naver", items[1].Source)
	assert.Equal(t, "social", p.Name())
}

func TestHTTPProvider_FetchEnvelopeDerivesMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items": [
			{"keyword": "AI 칩", "current": 20, "history": [10, 10, 10, 10], "previous": 10, "delta_minutes": 5},
			{"keyword": "새 키워드", "current": 5, "history": [0, 0]}
		]}`))
	}))
	defer srv.Close()

	items, err := NewHTTPProvider(HTTPConfig{URL: srv.URL, RateLimit: 100}).Fetch(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, 0.0, items[0].ZScore, "flat history carries no z-score")
	assert.Equal(t, 1.0, items[0].Slope)
	assert.Equal(t, 2.0, items[0].Velocity)
	assert.Equal(t, srv.URL, items[0].Source)

	assert.Equal(t, 1.0, items[1].Slope, "jump from zero baseline")
}

func TestHTTPProvider_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	items, err := NewHTTPProvider(HTTPConfig{URL: srv.URL, RateLimit: 100}).Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestHTTPProvider_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "bad" {
			_, _ = w.Write([]byte(`{"items": "nope"}`))
			return
		}
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{Name: "feed", URL: srv.URL, RateLimit: 100})

	_, err := p.Fetch(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed returned 502")

	_, err = p.Fetch(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse feed")
}

func TestHTTPProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPProvider(HTTPConfig{URL: "http://127.0.0.1:1"}).Fetch(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
