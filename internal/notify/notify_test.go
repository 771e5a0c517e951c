package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeaandrob/trendsignals/internal/models"
)

func TestNotifier_SendsOncePerKeyword(t *testing.T) {
	var calls atomic.Int32
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/bottoken123/sendMessage", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	n := New(Config{TelegramToken: "token123", TelegramChatID: "42", BaseURL: srv.URL})
	require.True(t, n.Enabled())

	trend := models.Candidate{
		Keyword:        "비트코인 랠리",
		FinalScore:     93,
		Type:           models.TypeBreaking,
		Category:       models.CategoryFinance,
		Source:         "X",
		RelatedInsight: "ETF inflows accelerate.",
	}
	require.NoError(t, n.Alert(context.Background(), trend))
	require.NoError(t, n.Alert(context.Background(), trend))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "42", body["chat_id"])
	assert.Contains(t, body["text"], "[BREAKING] 비트코인 랠리 (93.0)")
	assert.Contains(t, body["text"], "ETF inflows accelerate.")
}

func TestNotifier_FailedSendCanRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "flood", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	n := New(Config{TelegramToken: "t", TelegramChatID: "c", BaseURL: srv.URL})
	trend := models.Candidate{Keyword: "x", FinalScore: 90}

	err := n.Alert(context.Background(), trend)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram returned 429")

	require.NoError(t, n.Alert(context.Background(), trend))
	assert.Equal(t, int32(2), calls.Load())
}

func TestNotifier_LogOnly(t *testing.T) {
	n := New(Config{})
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Alert(context.Background(), models.Candidate{Keyword: "x"}))
}
