// Package analyzer runs the three analysis stages over a fetched snapshot:
// trader classification, bundle detection and risk scoring.
//
// The stages are pure; the analyzer only wires their outputs together,
// turns skipped records into warnings and checks the cross-stage invariants
// before handing the result out.
package analyzer

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rewired-gh/tokenguard/internal/bundle"
	"github.com/rewired-gh/tokenguard/internal/logger"
	"github.com/rewired-gh/tokenguard/internal/models"
	"github.com/rewired-gh/tokenguard/internal/risk"
	"github.com/rewired-gh/tokenguard/internal/trader"
)

// Settings bundles the policy tables of every stage.
type Settings struct {
	Thresholds trader.Thresholds
	Policy     bundle.Policy
	Weights    risk.Weights
}

// DefaultSettings returns the built-in tables of every stage.
func DefaultSettings() Settings {
	return Settings{
		Thresholds: trader.DefaultThresholds(),
		Policy:     bundle.DefaultPolicy(),
		Weights:    risk.DefaultWeights(),
	}
}

// Analyzer runs the pipeline with a fixed configuration.
type Analyzer struct {
	settings Settings
	log      *zap.Logger
	now      func() time.Time
}

// New creates an Analyzer. A nil log falls back to the package logger.
func New(s Settings, log *zap.Logger) *Analyzer {
	if log == nil {
		log = logger.L()
	}
	return &Analyzer{settings: s, log: log.Named("analyzer"), now: time.Now}
}

// Analyze classifies traders, detects bundles and scores the token.
// Malformed records never fail the run; they end up in Analysis.Warnings.
// A broken invariant is returned as an error wrapping
// models.ErrInvariantViolation.
func (a *Analyzer) Analyze(snap models.Snapshot) (*models.Analysis, error) {
	if snap.TokenAddress == "" {
		return nil, errors.New("snapshot has no token address")
	}
	start := a.now()

	traders := trader.Classify(snap.Transactions, a.settings.Thresholds)
	bundles := bundle.Detect(snap.Transactions, traders.Labels, a.settings.Policy)

	var warnings []string
	// Both stages validate the same slice; report each rejected record once.
	for _, err := range traders.Warnings {
		warnings = append(warnings, err.Error())
	}

	holderIssues := 0
	for i := range snap.Holders {
		if err := snap.Holders[i].Validate(); err != nil {
			holderIssues++
			warnings = append(warnings, (&models.RecordError{Kind: "holder", Index: i, Reason: err.Error()}).Error())
		}
	}
	if traders.ValidTxs == 0 {
		warnings = append(warnings, fmt.Errorf("%w: no usable transactions", models.ErrInsufficientData).Error())
	}
	if len(snap.Holders)-holderIssues == 0 {
		warnings = append(warnings, fmt.Errorf("%w: no holder data", models.ErrInsufficientData).Error())
	}

	in := risk.Input{
		MintAuthorityRevoked:   snap.Token.MintAuthorityRevoked,
		FreezeAuthorityRevoked: snap.Token.FreezeAuthorityRevoked,
		Top10Concentration:     risk.Top10Concentration(snap.Holders),
		BundledPercentage:      bundles.BundledPercentage,
		BotPercentage:          traders.BotTxShare,
		LiquidityPresent:       snap.LiquidityPresent(),
		ExternalScore:          snap.ExternalScore(),
	}
	report := risk.Score(in, a.settings.Weights)

	analysis := &models.Analysis{
		ID:           uuid.New().String(),
		TokenAddress: snap.TokenAddress,
		Token:        snap.Token,
		Traders: models.TraderSummary{
			TotalWallets:  len(traders.Profiles),
			Counts:        traders.Counts,
			BotPercentage: traders.BotTxShare,
			Profiles:      traders.Profiles,
		},
		Bundles: models.BundleSummary{
			TotalBundles:      len(bundles.Groups),
			SuspiciousBundles: bundles.SuspiciousCount,
			BundledWallets:    bundles.BundledWallets,
			TotalWallets:      bundles.TotalWallets,
			BundledPercentage: bundles.BundledPercentage,
			Groups:            bundles.Groups,
		},
		Risk:       report,
		Warnings:   warnings,
		AnalyzedAt: a.now().UTC(),
	}
	if analysis.Token.Address == "" {
		analysis.Token.Address = snap.TokenAddress
	}

	if err := analysis.Verify(); err != nil {
		a.log.Error("analysis failed verification", zap.String("token", snap.TokenAddress), zap.Error(err))
		return nil, fmt.Errorf("verify analysis of %s: %w", snap.TokenAddress, err)
	}

	a.log.Info("analysis complete",
		zap.String("id", analysis.ID),
		zap.String("token", snap.TokenAddress),
		zap.Int("wallets", analysis.Traders.TotalWallets),
		zap.Int("bundles", analysis.Bundles.TotalBundles),
		zap.Int("score", report.TotalScore),
		zap.String("level", string(report.Level)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("elapsed", a.now().Sub(start)),
	)
	return analysis, nil
}
