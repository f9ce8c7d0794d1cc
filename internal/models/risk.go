package models

// RiskLevel is the discrete bucket of a composite risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Rank orders levels from LOW (0) to CRITICAL (3); unknown levels rank -1.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return -1
}

// ParseRiskLevel returns the level named s, or false.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	l := RiskLevel(s)
	return l, l.Rank() >= 0
}

// RiskFactor is one triggered contribution to the total score.
type RiskFactor struct {
	Name        string `json:"name"`
	Points      int    `json:"points"`
	Description string `json:"description"`
}

// RiskReport is the scorer output.
type RiskReport struct {
	TotalScore int          `json:"total_score"`
	Level      RiskLevel    `json:"risk_level"`
	Factors    []RiskFactor `json:"factors"`

	// Inputs, echoed for reporting.
	MintAuthorityRevoked   bool    `json:"mint_authority_revoked"`
	FreezeAuthorityRevoked bool    `json:"freeze_authority_revoked"`
	Top10Concentration     float64 `json:"top10_concentration"`
	BundledPercentage      float64 `json:"bundled_wallet_percentage"`
	BotPercentage          float64 `json:"bot_percentage"`
	LiquidityPresent       bool    `json:"liquidity_present"`
	ExternalScore          *int    `json:"external_score,omitempty"`
}

// RawPoints returns the unclamped sum of factor points.
func (r *RiskReport) RawPoints() int {
	sum := 0
	for _, f := range r.Factors {
		sum += f.Points
	}
	return sum
}
