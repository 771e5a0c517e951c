package models

// RawSignal is one item as returned by a raw signal provider. Category and
// Type are free text until ingestion maps them onto the closed enums.
type RawSignal struct {
	Keyword  string `json:"keyword"`
	Source   string `json:"source"`
	Type     string `json:"type"`
	Category string `json:"category,omitempty"`

	ZScore            float64 `json:"z_score"`
	Slope             float64 `json:"slope"`
	SearchDensity     float64 `json:"search_density"`
	Velocity          float64 `json:"velocity"`
	SNSVolume         float64 `json:"sns_volume"`
	CommunityActivity float64 `json:"community_activity"`
	FinanceVolatility float64 `json:"finance_volatility"`

	RelatedInsight string `json:"related_insight,omitempty"`
	Link           string `json:"link,omitempty"`
}
