package models

import (
	"fmt"
	"time"
)

// TraderSummary aggregates the classifier output.
type TraderSummary struct {
	TotalWallets  int             `json:"total_wallets"`
	Counts        LabelCounts     `json:"counts"`
	BotPercentage float64         `json:"bot_percentage"` // share of transactions made by bots
	Profiles      []WalletProfile `json:"profiles"`
}

// BundleSummary aggregates the bundle detector output.
type BundleSummary struct {
	TotalBundles      int           `json:"total_bundles"`
	SuspiciousBundles int           `json:"suspicious_bundles"`
	BundledWallets    int           `json:"bundled_wallets"`
	TotalWallets      int           `json:"total_wallets"`
	BundledPercentage float64       `json:"bundled_wallet_percentage"`
	Groups            []BundleGroup `json:"groups"`
}

// Analysis is the complete result of one run.
type Analysis struct {
	ID           string        `json:"id"`
	TokenAddress string        `json:"token_address"`
	Token        TokenInfo     `json:"token"`
	Traders      TraderSummary `json:"traders"`
	Bundles      BundleSummary `json:"bundles"`
	Risk         RiskReport    `json:"risk"`
	Warnings     []string      `json:"warnings,omitempty"`
	AnalyzedAt   time.Time     `json:"analyzed_at"`
}

// Labels returns the wallet → label mapping.
func (a *Analysis) Labels() map[string]TraderLabel {
	labels := make(map[string]TraderLabel, len(a.Traders.Profiles))
	for _, p := range a.Traders.Profiles {
		labels[p.Address] = p.Label
	}
	return labels
}

// Verify checks the cross-stage invariants. Any failure wraps
// ErrInvariantViolation.
func (a *Analysis) Verify() error {
	seen := make(map[string]bool, len(a.Traders.Profiles))
	for _, p := range a.Traders.Profiles {
		if seen[p.Address] {
			return fmt.Errorf("%w: wallet %s labelled twice", ErrInvariantViolation, p.Address)
		}
		seen[p.Address] = true
		if !p.Label.Valid() {
			return fmt.Errorf("%w: wallet %s has unknown label %q", ErrInvariantViolation, p.Address, p.Label)
		}
	}
	if a.Traders.Counts.Total() != len(a.Traders.Profiles) {
		return fmt.Errorf("%w: label counts %d != wallets %d",
			ErrInvariantViolation, a.Traders.Counts.Total(), len(a.Traders.Profiles))
	}

	grouped := make(map[string]string)
	members := 0
	for _, g := range a.Bundles.Groups {
		if g.Size() < 2 {
			return fmt.Errorf("%w: bundle %s has %d wallets", ErrInvariantViolation, g.ID, g.Size())
		}
		for _, w := range g.Wallets {
			if other, ok := grouped[w]; ok {
				return fmt.Errorf("%w: wallet %s in bundles %s and %s", ErrInvariantViolation, w, other, g.ID)
			}
			grouped[w] = g.ID
		}
		members += g.Size()
	}
	if members > a.Bundles.TotalWallets {
		return fmt.Errorf("%w: %d bundled wallets exceed %d holders",
			ErrInvariantViolation, members, a.Bundles.TotalWallets)
	}

	if a.Risk.TotalScore < 0 || a.Risk.TotalScore > 100 {
		return fmt.Errorf("%w: score %d out of range", ErrInvariantViolation, a.Risk.TotalScore)
	}
	return nil
}
