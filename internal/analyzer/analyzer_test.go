package analyzer

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rewired-gh/tokenguard/internal/models"
	"github.com/rewired-gh/tokenguard/internal/risk"
)

const mint = "So11111111111111111111111111111111111111112"

var base = time.Unix(1_700_000_000, 0).UTC()

func swap(wallet string, offset time.Duration, block uint64, dir models.Direction, amount float64) models.Transaction {
	return models.Transaction{
		Signature:      fmt.Sprintf("%s-%d-%d", wallet, block, offset),
		Wallet:         wallet,
		Block:          block,
		Timestamp:      base.Add(offset),
		Direction:      dir,
		Amount:         amount,
		Counterparties: []string{"pool"},
	}
}

func evenHolders(n int, pct float64) []models.Holder {
	holders := make([]models.Holder, 0, n)
	for i := 0; i < n; i++ {
		holders = append(holders, models.Holder{Address: fmt.Sprintf("holder_%d", i), Amount: pct * 1000, Percentage: pct})
	}
	return holders
}

func intPtr(v int) *int { return &v }

func newTestAnalyzer() *Analyzer {
	return New(DefaultSettings(), zap.NewNop())
}

func TestAnalyze_LowRiskToken(t *testing.T) {
	var txs []models.Transaction
	for i := 0; i < 5; i++ {
		txs = append(txs, swap(fmt.Sprintf("wallet_%d", i), time.Duration(i)*10*time.Minute, uint64(100+i*50),
			models.DirectionBuy, float64(100*(i+1))))
	}
	snap := models.Snapshot{
		TokenAddress: mint,
		Token: models.TokenInfo{
			Name:                   "Sample",
			Symbol:                 "SMP",
			MintAuthorityRevoked:   true,
			FreezeAuthorityRevoked: false,
			LiquidityPresent:       true,
		},
		Holders:      evenHolders(10, 4.23),
		Transactions: txs,
	}

	a, err := newTestAnalyzer().Analyze(snap)
	require.NoError(t, err)

	assert.Equal(t, 42.3, a.Risk.Top10Concentration)
	assert.Zero(t, a.Bundles.BundledPercentage)
	assert.Zero(t, a.Traders.BotPercentage)
	assert.Nil(t, a.Risk.ExternalScore)
	assert.Equal(t, 20, a.Risk.TotalScore)
	assert.Equal(t, models.RiskLow, a.Risk.Level)
	require.Len(t, a.Risk.Factors, 1)
	assert.Equal(t, risk.FactorFreezeAuthority, a.Risk.Factors[0].Name)

	assert.Equal(t, 6, a.Traders.TotalWallets, "five traders plus the pool counterparty")
	assert.Equal(t, 6, a.Traders.Counts[models.LabelRealTrader])
	assert.Equal(t, mint, a.Token.Address)
	assert.Empty(t, a.Warnings)
	_, err = uuid.Parse(a.ID)
	assert.NoError(t, err)
}

func TestAnalyze_CriticalToken(t *testing.T) {
	var txs []models.Transaction
	for i := 0; i < 20; i++ {
		txs = append(txs, swap("bot_wallet", time.Duration(i)*time.Second, uint64(1000+i), models.DirectionBuy, 10))
	}
	for i := 0; i < 6; i++ {
		txs = append(txs, swap(fmt.Sprintf("bundler_%d", i), time.Hour, 5000, models.DirectionBuy, float64(1000+i*200)))
	}
	snap := models.Snapshot{
		TokenAddress: mint,
		Holders:      evenHolders(10, 9.5),
		Transactions: txs,
		External:     &models.ExternalReport{Score: intPtr(9000)},
	}

	a, err := newTestAnalyzer().Analyze(snap)
	require.NoError(t, err)

	assert.Equal(t, models.LabelBot, a.Labels()["bot_wallet"])
	assert.Greater(t, a.Traders.BotPercentage, 50.0)
	require.Len(t, a.Bundles.Groups, 1)
	assert.Equal(t, 6, a.Bundles.Groups[0].Size())
	assert.True(t, a.Bundles.Groups[0].Suspicious)
	assert.Greater(t, a.Bundles.BundledPercentage, 30.0)

	assert.Equal(t, 120, a.Risk.RawPoints())
	assert.Equal(t, 100, a.Risk.TotalScore)
	assert.Equal(t, models.RiskCritical, a.Risk.Level)
}

func TestAnalyze_MalformedRecordsBecomeWarnings(t *testing.T) {
	snap := models.Snapshot{
		TokenAddress: mint,
		Holders: []models.Holder{
			{Address: "h1", Percentage: 30},
			{Address: "", Percentage: 10},
		},
		Transactions: []models.Transaction{
			swap("a", 0, 10, models.DirectionBuy, 5),
			{Wallet: "b", Block: 11, Direction: models.DirectionBuy},
		},
	}

	a, err := newTestAnalyzer().Analyze(snap)
	require.NoError(t, err)
	require.Len(t, a.Warnings, 2)
	assert.Contains(t, a.Warnings[0], "transaction #1")
	assert.Contains(t, a.Warnings[1], "holder #1")
	assert.Equal(t, 30.0, a.Risk.Top10Concentration)
}

func TestAnalyze_NoDataStillScores(t *testing.T) {
	a, err := newTestAnalyzer().Analyze(models.Snapshot{TokenAddress: mint})
	require.NoError(t, err)

	assert.Zero(t, a.Traders.TotalWallets)
	assert.Empty(t, a.Bundles.Groups)
	assert.Zero(t, a.Risk.Top10Concentration)
	// mint + freeze + no liquidity
	assert.Equal(t, 55, a.Risk.TotalScore)
	assert.Equal(t, models.RiskHigh, a.Risk.Level)

	joined := strings.Join(a.Warnings, "\n")
	assert.Contains(t, joined, "no usable transactions")
	assert.Contains(t, joined, "no holder data")
}

func TestAnalyze_RequiresTokenAddress(t *testing.T) {
	_, err := newTestAnalyzer().Analyze(models.Snapshot{})
	assert.Error(t, err)
}

func TestAnalyze_DeterministicAcrossRuns(t *testing.T) {
	var txs []models.Transaction
	for i := 0; i < 8; i++ {
		txs = append(txs, swap(fmt.Sprintf("w%d", i), time.Duration(i%3)*time.Second, uint64(10+i%2), models.DirectionBuy, 50))
	}
	snap := models.Snapshot{TokenAddress: mint, Transactions: txs, Holders: evenHolders(3, 20)}

	first, err := newTestAnalyzer().Analyze(snap)
	require.NoError(t, err)
	second, err := newTestAnalyzer().Analyze(snap)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Traders, second.Traders)
	assert.Equal(t, first.Bundles, second.Bundles)
	assert.Equal(t, first.Risk, second.Risk)
}
