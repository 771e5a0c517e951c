// Package trend implements the trend scoring and ranking pipeline:
// collect, merge, score, refine, cluster, analyze, rank and brief.
package trend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/trendsignals/internal/llm"
	"github.com/leeaandrob/trendsignals/internal/models"
)

// DefaultAlertThreshold is the score above which a ranked trend is alerted.
const DefaultAlertThreshold = 85.0

// Source is a raw signal provider. An empty result means no candidates from
// that source.
type Source interface {
	Name() string
	Fetch(ctx context.Context, seed string) ([]models.RawSignal, error)
}

// Sink persists the ranked rows of a run.
type Sink interface {
	ReplaceActiveTrends(ctx context.Context, trends []models.ActiveTrend) error
}

// Enricher adds external context to ranked trends in place.
type Enricher interface {
	Enrich(ctx context.Context, trends []models.Candidate)
}

// Alerter is notified about high-scoring trends.
type Alerter interface {
	Alert(ctx context.Context, trend models.Candidate) error
}

// Config wires a Pipeline. Every collaborator is optional; missing model
// tiers degrade to the deterministic fallbacks.
type Config struct {
	Sources []Source
	Scorer  *Scorer

	Local      llm.Generator
	LocalModel string
	Cloud      llm.Generator
	CloudModel string

	EnableClustering bool
	ClusterLimit     int
	AlertThreshold   float64

	Enricher Enricher
	Sink     Sink
	Alerter  Alerter
}

// Pipeline runs one collection-to-ranking pass per call to Run. It holds no
// per-run state, so concurrent runs are independent.
type Pipeline struct {
	sources   []Source
	scorer    *Scorer
	refiner   *Refiner
	clusterer *Clusterer
	analyst   *Analyst
	ranker    *Ranker
	briefer   *Briefer
	enricher  Enricher
	sink      Sink
	alerter   Alerter

	enableClustering bool
	clusterLimit     int
	alertThreshold   float64
}

// Result is the outcome of one pipeline run.
type Result struct {
	RunID      string             `json:"run_id"`
	Seed       string             `json:"seed,omitempty"`
	Collected  int                `json:"collected"`
	Trends     []models.Candidate `json:"trends"`
	Report     string             `json:"report"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}

// NewPipeline builds the stage chain from a Config.
func NewPipeline(cfg Config) *Pipeline {
	scorer := cfg.Scorer
	if scorer == nil {
		scorer = NewScorer(ScorerConfig{})
	}
	threshold := cfg.AlertThreshold
	if threshold <= 0 {
		threshold = DefaultAlertThreshold
	}

	return &Pipeline{
		sources:   cfg.Sources,
		scorer:    scorer,
		refiner:   NewRefiner(cfg.Local, cfg.LocalModel),
		clusterer: NewClusterer(cfg.Local, cfg.LocalModel),
		analyst:   NewAnalyst(cfg.Cloud, cfg.CloudModel),
		ranker: NewRanker(
			RankTier{Name: "cloud", LLM: cfg.Cloud, Model: cfg.CloudModel},
			RankTier{Name: "local", LLM: cfg.Local, Model: cfg.LocalModel},
		),
		briefer:          NewBriefer(cfg.Local, cfg.LocalModel),
		enricher:         cfg.Enricher,
		sink:             cfg.Sink,
		alerter:          cfg.Alerter,
		enableClustering: cfg.EnableClustering,
		clusterLimit:     cfg.ClusterLimit,
		alertThreshold:   threshold,
	}
}

// Run collects raw signals and returns the ranked top trends. Only a
// cancelled context aborts; every stage degrades instead of failing.
func (p *Pipeline) Run(ctx context.Context, seed string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline not started: %w", err)
	}

	res := &Result{
		RunID:     uuid.NewString(),
		Seed:      seed,
		StartedAt: time.Now().UTC(),
	}
	logger := log.With().Str("run_id", res.RunID).Logger()

	raw := p.collect(ctx, seed)
	candidates := Merge(raw)
	res.Collected = len(candidates)

	if len(candidates) == 0 {
		logger.Info().Msg("No candidates collected")
		res.Trends = []models.Candidate{}
		res.Report = AnalysisUnavailable
		res.FinishedAt = time.Now().UTC()
		return res, nil
	}

	scored := p.scorer.Apply(candidates)
	refined := p.refiner.Refine(ctx, scored)
	if p.enableClustering {
		refined = p.clusterer.Cluster(ctx, refined, p.clusterLimit)
	}

	res.Report = p.analyst.Analyze(ctx, refined)
	res.Trends = p.ranker.Rank(ctx, refined, res.Report)
	if p.enricher != nil {
		p.enricher.Enrich(ctx, res.Trends)
	}
	p.briefer.Fill(ctx, res.Trends)
	res.FinishedAt = time.Now().UTC()

	if p.sink != nil {
		rows := models.ActiveTrendsFrom(res.Trends, res.RunID, res.FinishedAt)
		if err := p.sink.ReplaceActiveTrends(ctx, rows); err != nil {
			logger.Warn().Err(err).Msg("Failed to persist active trends")
		}
	}

	if p.alerter != nil {
		for _, t := range res.Trends {
			if t.FinalScore <= p.alertThreshold {
				continue
			}
			if err := p.alerter.Alert(ctx, t); err != nil {
				logger.Warn().Err(err).Str("keyword", t.Keyword).Msg("Failed to send alert")
			}
		}
	}

	logger.Info().
		Int("collected", res.Collected).
		Int("refined", len(refined)).
		Int("ranked", len(res.Trends)).
		Dur("took", res.FinishedAt.Sub(res.StartedAt)).
		Msg("Pipeline run complete")

	return res, nil
}

func (p *Pipeline) collect(ctx context.Context, seed string) []models.RawSignal {
	var raw []models.RawSignal
	for _, src := range p.sources {
		items, err := src.Fetch(ctx, seed)
		if err != nil {
			log.Warn().Err(err).Str("source", src.Name()).Msg("Provider fetch failed")
			continue
		}
		log.Debug().Str("source", src.Name()).Int("items", len(items)).Msg("Provider fetched")
		raw = append(raw, items...)
	}
	return raw
}
