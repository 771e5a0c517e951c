// Package models defines the core data structures for trendsignals.
package models

import (
	"strings"
)

// Category is the domain bucket that selects the scoring attenuation.
type Category string

const (
	CategoryFinance   Category = "FINANCE"
	CategoryTech      Category = "TECH"
	CategoryCeleb     Category = "CELEB"
	CategoryLifestyle Category = "LIFESTYLE"
	CategoryShopping  Category = "SHOPPING"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryFinance,
	CategoryTech,
	CategoryCeleb,
	CategoryLifestyle,
	CategoryShopping,
}

// ParseCategory maps free-form text onto the closed category set.
// Unknown values default to TECH.
func ParseCategory(s string) Category {
	switch Category(strings.ToUpper(strings.TrimSpace(s))) {
	case CategoryFinance:
		return CategoryFinance
	case CategoryCeleb:
		return CategoryCeleb
	case CategoryLifestyle:
		return CategoryLifestyle
	case CategoryShopping:
		return CategoryShopping
	default:
		return CategoryTech
	}
}

// TrendType is the lifecycle/severity tag of a candidate.
type TrendType string

const (
	TypeBreaking TrendType = "BREAKING"
	TypeViral    TrendType = "VIRAL"
	TypeShopping TrendType = "SHOPPING"
	TypeMacro    TrendType = "MACRO"
	TypeNews     TrendType = "NEWS"
	TypeRising   TrendType = "RISING"
)

// ParseType maps free-form text onto the closed type set.
// Unknown values default to RISING.
func ParseType(s string) TrendType {
	switch TrendType(strings.ToUpper(strings.TrimSpace(s))) {
	case TypeBreaking:
		return TypeBreaking
	case TypeViral:
		return TypeViral
	case TypeShopping:
		return TypeShopping
	case TypeMacro:
		return TypeMacro
	case TypeNews:
		return TypeNews
	default:
		return TypeRising
	}
}

// Severity orders types when two sources disagree about one keyword.
func (t TrendType) Severity() int {
	switch t {
	case TypeBreaking:
		return 5
	case TypeViral:
		return 4
	case TypeMacro:
		return 3
	case TypeShopping:
		return 2
	case TypeNews:
		return 1
	default:
		return 0
	}
}

// Channel names used in signal breakdowns.
const (
	ChannelSearch    = "search"
	ChannelVideo     = "video"
	ChannelSNS       = "sns"
	ChannelCommunity = "community"
	ChannelFinance   = "finance"
)

// Candidate is one trend/signal item flowing through the pipeline.
type Candidate struct {
	Keyword  string    `bson:"keyword" json:"keyword"`
	Source   string    `bson:"source" json:"source"`
	Category Category  `bson:"category" json:"category"`
	Type     TrendType `bson:"type" json:"type"`

	// Raw per-channel sub-metrics
	ZScore            float64 `bson:"z_score" json:"z_score"`
	Slope             float64 `bson:"slope" json:"slope"`
	SearchDensity     float64 `bson:"search_density" json:"search_density"`
	Velocity          float64 `bson:"velocity" json:"velocity"`
	SNSVolume         float64 `bson:"sns_volume" json:"sns_volume"`
	CommunityActivity float64 `bson:"community_activity" json:"community_activity"`
	FinanceVolatility float64 `bson:"finance_volatility" json:"finance_volatility"`

	// Derived
	SignalBreakdown map[string]float64 `bson:"signal_breakdown" json:"signal_breakdown"`
	FinalScore      float64            `bson:"final_score" json:"final_score"`

	// Display metadata
	RelatedInsight string   `bson:"related_insight,omitempty" json:"related_insight,omitempty"`
	Link           string   `bson:"link,omitempty" json:"link,omitempty"`
	Members        []string `bson:"members,omitempty" json:"members,omitempty"`
}

// Clone returns a deep copy so stages never share maps or slices.
func (c Candidate) Clone() Candidate {
	out := c
	if c.SignalBreakdown != nil {
		out.SignalBreakdown = make(map[string]float64, len(c.SignalBreakdown))
		for k, v := range c.SignalBreakdown {
			out.SignalBreakdown[k] = v
		}
	}
	if c.Members != nil {
		out.Members = append([]string(nil), c.Members...)
	}
	return out
}

// Clone copies a candidate slice.
func Clone(candidates []Candidate) []Candidate {
	if candidates == nil {
		return nil
	}
	out := make([]Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = c.Clone()
	}
	return out
}
