package fraud

import "time"

// Thresholds holds every detector cut-off. It is a plain value: each detector
// keeps its own copy, so changing one after construction affects nothing.
type Thresholds struct {
	MetadataSimilarity float64       `mapstructure:"metadata_similarity" json:"metadata_similarity"`
	MetadataHigh       float64       `mapstructure:"metadata_high" json:"metadata_high"`
	CreationWindow     time.Duration `mapstructure:"creation_window" json:"creation_window"`

	PriceDeviation      float64 `mapstructure:"price_deviation" json:"price_deviation"`
	PriceCritical       float64 `mapstructure:"price_critical" json:"price_critical"`
	RoundPriceDeviation float64 `mapstructure:"round_price_deviation" json:"round_price_deviation"`
	RoundPriceRiskScore float64 `mapstructure:"round_price_risk_score" json:"round_price_risk_score"`

	ContentSimilarity float64 `mapstructure:"content_similarity" json:"content_similarity"`
	ContentCritical   float64 `mapstructure:"content_critical" json:"content_critical"`
	ContentRiskScale  float64 `mapstructure:"content_risk_scale" json:"content_risk_scale"`
	MaxFeatures       int     `mapstructure:"max_features" json:"max_features"`
	MaxPhrases        int     `mapstructure:"max_phrases" json:"max_phrases"`

	IPSimilarity float64 `mapstructure:"ip_similarity" json:"ip_similarity"`
	IPHigh       float64 `mapstructure:"ip_high" json:"ip_high"`
	IPRiskScale  float64 `mapstructure:"ip_risk_scale" json:"ip_risk_scale"`

	RegistrationWindow    time.Duration `mapstructure:"registration_window" json:"registration_window"`
	RegistrationRiskScore float64       `mapstructure:"registration_risk_score" json:"registration_risk_score"`
	SubmissionWindow      time.Duration `mapstructure:"submission_window" json:"submission_window"`
	SubmissionRiskScore   float64       `mapstructure:"submission_risk_score" json:"submission_risk_score"`
}

// DefaultThresholds returns the production cut-offs
func DefaultThresholds() Thresholds {
	return Thresholds{
		MetadataSimilarity: 0.8,
		MetadataHigh:       0.9,
		CreationWindow:     time.Hour,

		PriceDeviation:      0.2,
		PriceCritical:       0.5,
		RoundPriceDeviation: 0.3,
		RoundPriceRiskScore: 30,

		ContentSimilarity: 0.7,
		ContentCritical:   0.9,
		ContentRiskScale:  80,
		MaxFeatures:       1000,
		MaxPhrases:        10,

		IPSimilarity: 0.5,
		IPHigh:       0.8,
		IPRiskScale:  60,

		RegistrationWindow:    5 * time.Minute,
		RegistrationRiskScore: 40,
		SubmissionWindow:      10 * time.Minute,
		SubmissionRiskScore:   30,
	}
}
