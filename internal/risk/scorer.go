// Package risk combines token metadata and the behavioural findings into a
// composite 0–100 score with a discrete level.
package risk

import (
	"fmt"
	"math"
	"sort"

	"github.com/rewired-gh/tokenguard/internal/logger"
	"github.com/rewired-gh/tokenguard/internal/models"
)

// Factor names as they appear in reports.
const (
	FactorMintAuthority       = "mint_authority_not_revoked"
	FactorFreezeAuthority     = "freeze_authority_not_revoked"
	FactorConcentrationHigh   = "top10_concentration_high"
	FactorConcentrationMedium = "top10_concentration_medium"
	FactorBundlers            = "bundler_percentage_high"
	FactorBots                = "bot_percentage_high"
	FactorNoLiquidity         = "no_liquidity_info"
	FactorExternal            = "external_high_risk"
)

// Input is everything the scorer looks at.
type Input struct {
	MintAuthorityRevoked   bool
	FreezeAuthorityRevoked bool
	Top10Concentration     float64 // percent of supply held by the ten largest holders
	BundledPercentage      float64
	BotPercentage          float64
	LiquidityPresent       bool
	ExternalScore          *int // nil when no external report is available
}

// Weights holds the points awarded per factor and the trigger thresholds.
type Weights struct {
	MintAuthority       int
	FreezeAuthority     int
	ConcentrationHigh   int
	ConcentrationMedium int
	Bundlers            int
	Bots                int
	NoLiquidity         int
	External            int

	ConcentrationHighAbove   float64
	ConcentrationMediumAbove float64
	BundledAbove             float64
	BotAbove                 float64
	ExternalAbove            int
}

// DefaultWeights returns the built-in factor table.
func DefaultWeights() Weights {
	return Weights{
		MintAuthority:       25,
		FreezeAuthority:     20,
		ConcentrationHigh:   20,
		ConcentrationMedium: 10,
		Bundlers:            15,
		Bots:                10,
		NoLiquidity:         10,
		External:            20,

		ConcentrationHighAbove:   80,
		ConcentrationMediumAbove: 50,
		BundledAbove:             30,
		BotAbove:                 50,
		ExternalAbove:            500,
	}
}

// Score evaluates every factor and returns the report. Factors are listed in
// table order; the total is clamped to [0,100].
func Score(in Input, w Weights) models.RiskReport {
	r := models.RiskReport{
		Factors:                []models.RiskFactor{},
		MintAuthorityRevoked:   in.MintAuthorityRevoked,
		FreezeAuthorityRevoked: in.FreezeAuthorityRevoked,
		Top10Concentration:     in.Top10Concentration,
		BundledPercentage:      in.BundledPercentage,
		BotPercentage:          in.BotPercentage,
		LiquidityPresent:       in.LiquidityPresent,
		ExternalScore:          in.ExternalScore,
	}
	add := func(name string, points int, desc string) {
		r.Factors = append(r.Factors, models.RiskFactor{Name: name, Points: points, Description: desc})
	}

	if !in.MintAuthorityRevoked {
		add(FactorMintAuthority, w.MintAuthority, "Mint authority is still active; supply can be inflated")
	}
	if !in.FreezeAuthorityRevoked {
		add(FactorFreezeAuthority, w.FreezeAuthority, "Freeze authority is still active; holder accounts can be frozen")
	}
	switch c := in.Top10Concentration; {
	case c > w.ConcentrationHighAbove:
		add(FactorConcentrationHigh, w.ConcentrationHigh,
			fmt.Sprintf("Top 10 holders own %.2f%% of supply", c))
	case c > w.ConcentrationMediumAbove:
		add(FactorConcentrationMedium, w.ConcentrationMedium,
			fmt.Sprintf("Top 10 holders own %.2f%% of supply", c))
	}
	if in.BundledPercentage > w.BundledAbove {
		add(FactorBundlers, w.Bundlers,
			fmt.Sprintf("%.2f%% of wallets traded in coordinated bundles", in.BundledPercentage))
	}
	if in.BotPercentage > w.BotAbove {
		add(FactorBots, w.Bots,
			fmt.Sprintf("%.2f%% of transactions come from bots", in.BotPercentage))
	}
	if !in.LiquidityPresent {
		add(FactorNoLiquidity, w.NoLiquidity, "No liquidity information available")
	}
	if in.ExternalScore != nil && *in.ExternalScore > w.ExternalAbove {
		add(FactorExternal, w.External,
			fmt.Sprintf("External risk score %d exceeds %d", *in.ExternalScore, w.ExternalAbove))
	}

	total := r.RawPoints()
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	r.TotalScore = total
	r.Level = Level(total)

	logger.Debug("Score: raw=%d total=%d level=%s factors=%d", r.RawPoints(), total, r.Level, len(r.Factors))
	return r
}

// Level maps a clamped score to its bucket.
func Level(score int) models.RiskLevel {
	switch {
	case score < 25:
		return models.RiskLow
	case score < 50:
		return models.RiskMedium
	case score < 75:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}

// Top10Concentration sums the percentages of the ten largest valid holders.
// Malformed holders are skipped. An empty list yields 0.
func Top10Concentration(holders []models.Holder) float64 {
	valid := make([]models.Holder, 0, len(holders))
	for i := range holders {
		if err := holders[i].Validate(); err != nil {
			logger.Debug("Top10Concentration: skipping holder %d: %v", i, err)
			continue
		}
		valid = append(valid, holders[i])
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Percentage > valid[j].Percentage })
	if len(valid) > 10 {
		valid = valid[:10]
	}
	sum := 0.0
	for _, h := range valid {
		sum += h.Percentage
	}
	return math.Round(math.Min(sum, 100)*100) / 100
}
