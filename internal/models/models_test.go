package models

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionValidate(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tests := []struct {
		name    string
		tx      Transaction
		wantErr bool
	}{
		{
			name: "valid buy",
			tx: Transaction{
				Wallet:         "wallet-1",
				Block:          100,
				Timestamp:      now,
				Direction:      DirectionBuy,
				Amount:         10,
				Counterparties: []string{"pool"},
			},
			wantErr: false,
		},
		{
			name:    "missing wallet",
			tx:      Transaction{Block: 100, Timestamp: now, Direction: DirectionBuy, Amount: 1},
			wantErr: true,
		},
		{
			name:    "zero block",
			tx:      Transaction{Wallet: "w", Timestamp: now, Direction: DirectionBuy, Amount: 1},
			wantErr: true,
		},
		{
			name:    "zero timestamp",
			tx:      Transaction{Wallet: "w", Block: 1, Direction: DirectionSell, Amount: 1},
			wantErr: true,
		},
		{
			name:    "unknown direction",
			tx:      Transaction{Wallet: "w", Block: 1, Timestamp: now, Direction: "swap", Amount: 1},
			wantErr: true,
		},
		{
			name:    "negative amount",
			tx:      Transaction{Wallet: "w", Block: 1, Timestamp: now, Direction: DirectionSell, Amount: -1},
			wantErr: true,
		},
		{
			name:    "NaN amount",
			tx:      Transaction{Wallet: "w", Block: 1, Timestamp: now, Direction: DirectionSell, Amount: math.NaN()},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidTransactions(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	txs := []Transaction{
		{Wallet: "a", Block: 1, Timestamp: now, Direction: DirectionBuy, Amount: 1},
		{Block: 1, Timestamp: now, Direction: DirectionBuy, Amount: 1},
		{Wallet: "b", Block: 2, Timestamp: now, Direction: DirectionSell, Amount: 1},
	}

	valid, rejected := ValidTransactions(txs)
	require.Len(t, valid, 2)
	require.Len(t, rejected, 1)
	assert.ErrorIs(t, rejected[0], ErrMalformedRecord)
	var recErr *RecordError
	require.True(t, errors.As(rejected[0], &recErr))
	assert.Equal(t, 1, recErr.Index)
}

func TestHolderValidate(t *testing.T) {
	tests := []struct {
		name    string
		holder  Holder
		wantErr bool
	}{
		{"valid", Holder{Address: "h1", Amount: 10, Percentage: 12.5}, false},
		{"empty address", Holder{Percentage: 1}, true},
		{"percentage above 100", Holder{Address: "h1", Percentage: 101}, true},
		{"negative percentage", Holder{Address: "h1", Percentage: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.holder.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSnapshotExternalScore(t *testing.T) {
	s := Snapshot{}
	assert.Nil(t, s.ExternalScore(), "no report means no score")

	zero := 0
	s.External = &ExternalReport{Score: &zero}
	got := s.ExternalScore()
	require.NotNil(t, got, "a zero score is still a score")
	assert.Equal(t, 0, *got)
	assert.False(t, s.LiquidityPresent())

	s.External.LiquidityPresent = true
	assert.True(t, s.LiquidityPresent(), "liquidity from the external report")
}

func TestRiskLevelRank(t *testing.T) {
	levels := []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}
	for i, l := range levels {
		assert.Equal(t, i, l.Rank(), string(l))
	}
	_, ok := ParseRiskLevel("SEVERE")
	assert.False(t, ok)
}

func TestAnalysisVerify(t *testing.T) {
	valid := func() Analysis {
		return Analysis{
			Traders: TraderSummary{
				TotalWallets: 3,
				Counts:       LabelCounts{LabelRealTrader: 2, LabelBot: 1},
				Profiles: []WalletProfile{
					{Address: "a", Label: LabelRealTrader},
					{Address: "b", Label: LabelRealTrader},
					{Address: "c", Label: LabelBot},
				},
			},
			Bundles: BundleSummary{
				TotalWallets: 3,
				Groups:       []BundleGroup{{ID: "g1", Wallets: []string{"a", "b"}}},
			},
			Risk: RiskReport{TotalScore: 40, Level: RiskMedium},
		}
	}

	tests := []struct {
		name    string
		mutate  func(a *Analysis)
		wantErr bool
	}{
		{"valid", func(*Analysis) {}, false},
		{"duplicate label", func(a *Analysis) {
			a.Traders.Profiles = append(a.Traders.Profiles, WalletProfile{Address: "a", Label: LabelBot})
			a.Traders.Counts[LabelBot]++
		}, true},
		{"unknown label", func(a *Analysis) { a.Traders.Profiles[0].Label = "whale" }, true},
		{"singleton group", func(a *Analysis) { a.Bundles.Groups[0].Wallets = []string{"a"} }, true},
		{"overlapping groups", func(a *Analysis) {
			a.Bundles.Groups = append(a.Bundles.Groups, BundleGroup{ID: "g2", Wallets: []string{"b", "c"}})
		}, true},
		{"score out of range", func(a *Analysis) { a.Risk.TotalScore = 120 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid()
			tt.mutate(&a)
			err := a.Verify()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvariantViolation)
		})
	}
}
