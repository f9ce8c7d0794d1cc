package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/tokenguard/internal/models"
)

// safe is an input that triggers no factor.
func safe() Input {
	return Input{
		MintAuthorityRevoked:   true,
		FreezeAuthorityRevoked: true,
		Top10Concentration:     20,
		BundledPercentage:      5,
		BotPercentage:          10,
		LiquidityPresent:       true,
	}
}

func intPtr(v int) *int { return &v }

func names(r models.RiskReport) []string {
	out := make([]string, 0, len(r.Factors))
	for _, f := range r.Factors {
		out = append(out, f.Name)
	}
	return out
}

func TestScore_NoFactors(t *testing.T) {
	r := Score(safe(), DefaultWeights())
	assert.Equal(t, 0, r.TotalScore)
	assert.Equal(t, models.RiskLow, r.Level)
	assert.NotNil(t, r.Factors)
	assert.Empty(t, r.Factors)
}

func TestScore_EachFactor(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		factor string
		points int
	}{
		{"mint authority", func(in *Input) { in.MintAuthorityRevoked = false }, FactorMintAuthority, 25},
		{"freeze authority", func(in *Input) { in.FreezeAuthorityRevoked = false }, FactorFreezeAuthority, 20},
		{"high concentration", func(in *Input) { in.Top10Concentration = 85 }, FactorConcentrationHigh, 20},
		{"medium concentration", func(in *Input) { in.Top10Concentration = 60 }, FactorConcentrationMedium, 10},
		{"bundlers", func(in *Input) { in.BundledPercentage = 30.5 }, FactorBundlers, 15},
		{"bots", func(in *Input) { in.BotPercentage = 51 }, FactorBots, 10},
		{"no liquidity", func(in *Input) { in.LiquidityPresent = false }, FactorNoLiquidity, 10},
		{"external", func(in *Input) { in.ExternalScore = intPtr(501) }, FactorExternal, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := safe()
			tt.mutate(&in)
			r := Score(in, DefaultWeights())
			require.Len(t, r.Factors, 1)
			assert.Equal(t, tt.factor, r.Factors[0].Name)
			assert.Equal(t, tt.points, r.Factors[0].Points)
			assert.NotEmpty(t, r.Factors[0].Description)
			assert.Equal(t, tt.points, r.TotalScore)
		})
	}
}

func TestScore_ThresholdsAreStrict(t *testing.T) {
	in := safe()
	in.Top10Concentration = 50
	in.BundledPercentage = 30
	in.BotPercentage = 50
	in.ExternalScore = intPtr(500)
	r := Score(in, DefaultWeights())
	assert.Empty(t, r.Factors)

	in.Top10Concentration = 80
	r = Score(in, DefaultWeights())
	assert.Equal(t, []string{FactorConcentrationMedium}, names(r))
}

func TestScore_ConcentrationBandsExclusive(t *testing.T) {
	in := safe()
	in.Top10Concentration = 85
	r := Score(in, DefaultWeights())
	assert.Equal(t, []string{FactorConcentrationHigh}, names(r))
	assert.Equal(t, 20, r.TotalScore)
}

func TestScore_ExternalScoreAbsentVersusZero(t *testing.T) {
	in := safe()
	in.ExternalScore = nil
	r := Score(in, DefaultWeights())
	assert.Nil(t, r.ExternalScore)
	assert.Empty(t, r.Factors)

	in.ExternalScore = intPtr(0)
	r = Score(in, DefaultWeights())
	require.NotNil(t, r.ExternalScore)
	assert.Equal(t, 0, *r.ExternalScore)
	assert.Empty(t, r.Factors)
}

func TestScore_ClampedToHundred(t *testing.T) {
	in := Input{
		Top10Concentration: 95,
		BundledPercentage:  70,
		BotPercentage:      80,
		ExternalScore:      intPtr(9000),
	}
	r := Score(in, DefaultWeights())
	assert.Equal(t, 120, r.RawPoints())
	assert.Equal(t, 100, r.TotalScore)
	assert.Equal(t, models.RiskCritical, r.Level)
	assert.Equal(t, []string{
		FactorMintAuthority, FactorFreezeAuthority, FactorConcentrationHigh,
		FactorBundlers, FactorBots, FactorNoLiquidity, FactorExternal,
	}, names(r))
}

func TestScore_Monotonic(t *testing.T) {
	base := Score(safe(), DefaultWeights()).TotalScore
	in := safe()
	in.BotPercentage = 99
	assert.GreaterOrEqual(t, Score(in, DefaultWeights()).TotalScore, base)
	in.MintAuthorityRevoked = false
	assert.GreaterOrEqual(t, Score(in, DefaultWeights()).TotalScore, 35)
}

func TestScore_CustomWeights(t *testing.T) {
	w := DefaultWeights()
	w.FreezeAuthority = 60
	in := safe()
	in.FreezeAuthorityRevoked = false
	r := Score(in, w)
	assert.Equal(t, 60, r.TotalScore)
	assert.Equal(t, models.RiskHigh, r.Level)
}

func TestLevel(t *testing.T) {
	tests := []struct {
		score int
		want  models.RiskLevel
	}{
		{0, models.RiskLow},
		{24, models.RiskLow},
		{25, models.RiskMedium},
		{49, models.RiskMedium},
		{50, models.RiskHigh},
		{74, models.RiskHigh},
		{75, models.RiskCritical},
		{100, models.RiskCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Level(tt.score), "score %d", tt.score)
	}
}

func TestScore_FreezeOnlyIsLow(t *testing.T) {
	in := safe()
	in.FreezeAuthorityRevoked = false
	r := Score(in, DefaultWeights())
	assert.Equal(t, 20, r.TotalScore)
	assert.Equal(t, models.RiskLow, r.Level)
}

func TestTop10Concentration(t *testing.T) {
	t.Run("takes ten largest", func(t *testing.T) {
		var holders []models.Holder
		for i := 1; i <= 12; i++ {
			holders = append(holders, models.Holder{Address: string(rune('a' + i)), Percentage: float64(i)})
		}
		// 12+11+...+3
		assert.Equal(t, 75.0, Top10Concentration(holders))
	})

	t.Run("skips malformed", func(t *testing.T) {
		holders := []models.Holder{
			{Address: "a", Percentage: 40},
			{Address: "", Percentage: 30},
			{Address: "b", Percentage: 120},
			{Address: "c", Percentage: 10.5},
		}
		assert.Equal(t, 50.5, Top10Concentration(holders))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Zero(t, Top10Concentration(nil))
	})
}
