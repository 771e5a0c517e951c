package trend

import (
	"sort"

	"github.com/leeaandrob/trendsignals/internal/models"
	"github.com/leeaandrob/trendsignals/internal/stats"
)

// Weights are the per-channel contributions to the base score.
type Weights struct {
	Search    float64
	SNS       float64
	Community float64
	Video     float64
	Finance   float64
}

// DefaultWeights returns the stock channel weights.
func DefaultWeights() Weights {
	return Weights{Search: 0.30, SNS: 0.25, Community: 0.20, Video: 0.15, Finance: 0.15}
}

// DefaultAttenuation returns the stock category multipliers.
func DefaultAttenuation() map[models.Category]float64 {
	return map[models.Category]float64{
		models.CategoryFinance:   0.5,
		models.CategoryTech:      1.0,
		models.CategoryCeleb:     1.0,
		models.CategoryLifestyle: 1.2,
		models.CategoryShopping:  1.2,
	}
}

// ScorerConfig configures a Scorer. Zero values fall back to the defaults.
type ScorerConfig struct {
	Weights     *Weights
	Attenuation map[models.Category]float64
	Classifier  *Classifier
}

// Signals are the per-channel strengths fed into Score.
type Signals map[string]float64

// Scorer turns per-channel signals into a single bounded score.
type Scorer struct {
	weights     Weights
	attenuation map[models.Category]float64
	classifier  *Classifier
}

// NewScorer creates a scorer.
func NewScorer(cfg ScorerConfig) *Scorer {
	s := &Scorer{
		weights:     DefaultWeights(),
		attenuation: DefaultAttenuation(),
		classifier:  cfg.Classifier,
	}
	if cfg.Weights != nil {
		s.weights = *cfg.Weights
	}
	for cat, lambda := range cfg.Attenuation {
		s.attenuation[cat] = lambda
	}
	if s.classifier == nil {
		s.classifier = NewClassifier(DefaultClassifierConfig())
	}
	return s
}

// Lambda returns the attenuation for a category, 1.0 when unknown.
func (s *Scorer) Lambda(category models.Category) float64 {
	if lambda, ok := s.attenuation[category]; ok {
		return lambda
	}
	return 1.0
}

// Score clamps each channel to [0,100], sums the weighted channels and
// multiplies by the category attenuation.
func (s *Scorer) Score(signals Signals, category models.Category) float64 {
	base := stats.Clamp(signals[models.ChannelSearch], 0, 100)*s.weights.Search +
		stats.Clamp(signals[models.ChannelSNS], 0, 100)*s.weights.SNS +
		stats.Clamp(signals[models.ChannelCommunity], 0, 100)*s.weights.Community +
		stats.Clamp(signals[models.ChannelVideo], 0, 100)*s.weights.Video +
		stats.Clamp(signals[models.ChannelFinance], 0, 100)*s.weights.Finance

	final := base * s.Lambda(category)
	if final < 0 {
		final = 0
	}
	return stats.Round2(final)
}

// Breakdown derives the normalized 0-100 channel contributions of a candidate.
// The search channel blends z-score, slope and density with slope dominating.
func (s *Scorer) Breakdown(c models.Candidate) Signals {
	return Signals{
		models.ChannelSearch:    stats.Round2(stats.Clamp(c.ZScore*20+c.Slope*50+c.SearchDensity*0.5, 0, 100)),
		models.ChannelVideo:     stats.Round2(stats.Clamp(c.Velocity*10, 0, 100)),
		models.ChannelSNS:       stats.Round2(stats.Clamp(c.SNSVolume, 0, 100)),
		models.ChannelCommunity: stats.Round2(stats.Clamp(c.CommunityActivity, 0, 100)),
		models.ChannelFinance:   stats.Round2(stats.Clamp(c.FinanceVolatility, 0, 100)),
	}
}

// StatusFor derives the lifecycle tag from a final score.
func StatusFor(score float64) models.TrendType {
	switch {
	case score > 80:
		return models.TypeBreaking
	case score > 50:
		return models.TypeViral
	default:
		return models.TypeRising
	}
}

// Apply categorizes and scores every candidate and returns copies sorted by
// descending score. Provider-tagged types other than RISING are kept; RISING
// items take the status derived from their score.
func (s *Scorer) Apply(candidates []models.Candidate) []models.Candidate {
	out := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		c = c.Clone()
		if c.Category == "" {
			c.Category = s.classifier.Categorize(c.Keyword, c.Source)
		}
		breakdown := s.Breakdown(c)
		c.SignalBreakdown = breakdown
		c.FinalScore = s.Score(breakdown, c.Category)
		if c.Type == "" || c.Type == models.TypeRising {
			c.Type = StatusFor(c.FinalScore)
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalScore > out[j].FinalScore
	})
	return out
}
