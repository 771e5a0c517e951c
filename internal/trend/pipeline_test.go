package trend

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeaandrob/trendsignals/internal/models"
)

type staticSource struct {
	name  string
	items []models.RawSignal
	err   error
	seeds []string
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Fetch(_ context.Context, seed string) ([]models.RawSignal, error) {
	s.seeds = append(s.seeds, seed)
	return s.items, s.err
}

type recordingSink struct {
	rows []models.ActiveTrend
	err  error
}

func (s *recordingSink) ReplaceActiveTrends(_ context.Context, rows []models.ActiveTrend) error {
	s.rows = rows
	return s.err
}

type recordingAlerter struct {
	mu   sync.Mutex
	sent []string
}

func (a *recordingAlerter) Alert(_ context.Context, c models.Candidate) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, c.Keyword)
	return nil
}

func scenarioSources() []Source {
	return []Source{
		&staticSource{name: "social", items: []models.RawSignal{
			{Keyword: "비트코인 급등", Source: "X", Type: "VIRAL", ZScore: 3.0, Slope: 0.5},
		}},
		&staticSource{name: "outage", err: errors.New("connection refused")},
		&staticSource{name: "empty"},
		&staticSource{name: "search", items: []models.RawSignal{
			{Keyword: "비트코인", Source: "Naver", Type: "MACRO"},
			{Keyword: "오늘 날씨", Source: "Naver", Type: "NEWS"},
		}},
	}
}

func TestPipeline_AllTiersDown(t *testing.T) {
	local, cloud := failing(), failing()
	sink := &recordingSink{}
	alerter := &recordingAlerter{}

	p := NewPipeline(Config{
		Sources:          scenarioSources(),
		Local:            local,
		Cloud:            cloud,
		EnableClustering: true,
		Sink:             sink,
		Alerter:          alerter,
	})

	res, err := p.Run(context.Background(), "")
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Collected)
	assert.Equal(t, AnalysisUnavailable, res.Report)

	require.Len(t, res.Trends, 3)
	assert.Equal(t, []string{"비트코인 급등", "비트코인", "오늘 날씨"}, keywords(res.Trends))
	assert.Equal(t, models.CategoryFinance, res.Trends[0].Category)
	assert.Equal(t, models.CategoryFinance, res.Trends[1].Category)
	assert.Equal(t, models.CategoryTech, res.Trends[2].Category)
	assert.Equal(t, []float64{85, 78, 66}, scores(res.Trends))
	for i, tr := range res.Trends {
		assert.LessOrEqual(t, tr.FinalScore, 99.0)
		if i > 0 {
			assert.Less(t, tr.FinalScore, res.Trends[i-1].FinalScore)
		}
	}
	assert.Equal(t, "비트코인 급등에 대한 상승 추세가 관측됩니다. 분석 데이터 축적 중입니다.", res.Trends[0].RelatedInsight)

	require.Len(t, sink.rows, 3)
	assert.Equal(t, 1, sink.rows[0].Rank)
	assert.Equal(t, res.RunID, sink.rows[2].RunID)
	assert.Equal(t, "#", sink.rows[2].Link)
	assert.Equal(t, models.TypeNews, sink.rows[2].Status)

	assert.Empty(t, alerter.sent, "85 is not above the alert threshold")
	// refine, cluster, rank(local) and three briefings hit the local tier
	assert.Equal(t, 6, local.calls())
	// analyze and rank(cloud)
	assert.Equal(t, 2, cloud.calls())
}

func TestPipeline_ModelPath(t *testing.T) {
	local := replying(`["비트코인", "오늘 날씨"]`, `[{"representative": "비트코인 랠리", "members": ["비트코인 급등"]}]`)
	cloud := replying(
		"Crypto leads.\nSentiment: BULLISH",
		`[{"original_id": 1, "score": 40, "insight": "Weather is calm."}, {"original_id": 0, "score": 93, "insight": "Bitcoin rally."}]`,
	)
	alerter := &recordingAlerter{}

	p := NewPipeline(Config{
		Sources:          scenarioSources(),
		Local:            local,
		Cloud:            cloud,
		EnableClustering: true,
		Alerter:          alerter,
	})

	res, err := p.Run(context.Background(), "비트코인")
	require.NoError(t, err)

	assert.Equal(t, "Crypto leads.\nSentiment: BULLISH", res.Report)
	require.Len(t, res.Trends, 2)
	assert.Equal(t, "비트코인 랠리", res.Trends[0].Keyword)
	assert.Equal(t, []string{"비트코인 급등"}, res.Trends[0].Members)
	assert.Equal(t, 93.0, res.Trends[0].FinalScore)
	assert.Equal(t, "Bitcoin rally.", res.Trends[0].RelatedInsight)
	assert.Equal(t, "오늘 날씨", res.Trends[1].Keyword)
	assert.Equal(t, []string{"비트코인 랠리"}, alerter.sent)
	assert.Equal(t, 2, local.calls())
}

func TestPipeline_NoCandidates(t *testing.T) {
	local, cloud := replying("[]"), replying("[]")
	sink := &recordingSink{}
	src := &staticSource{name: "empty"}

	res, err := NewPipeline(Config{Sources: []Source{src}, Local: local, Cloud: cloud, Sink: sink}).
		Run(context.Background(), "seed")
	require.NoError(t, err)

	assert.Empty(t, res.Trends)
	assert.Equal(t, []string{"seed"}, src.seeds)
	assert.Zero(t, local.calls())
	assert.Zero(t, cloud.calls())
	assert.Nil(t, sink.rows)
}

func TestPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(Config{}).Run(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_SinkErrorDoesNotFailRun(t *testing.T) {
	sink := &recordingSink{err: errors.New("db down")}
	res, err := NewPipeline(Config{Sources: scenarioSources(), Sink: sink}).Run(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, res.Trends, 3)
}

type linkEnricher struct{ calls int }

func (e *linkEnricher) Enrich(_ context.Context, trends []models.Candidate) {
	e.calls++
	for i := range trends {
		if trends[i].Link == "" {
			trends[i].Link = "https://news.local/" + trends[i].Keyword
		}
	}
}

func TestPipeline_EnricherFillsLinks(t *testing.T) {
	enricher := &linkEnricher{}
	sink := &recordingSink{}
	res, err := NewPipeline(Config{Sources: scenarioSources(), Enricher: enricher, Sink: sink}).Run(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 1, enricher.calls)
	for _, tr := range res.Trends {
		assert.NotEmpty(t, tr.Link)
	}
}
