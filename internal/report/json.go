// Package report renders an analysis as a JSON document, a self-contained
// HTML page and a terminal dashboard.
package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rewired-gh/tokenguard/internal/models"
	"github.com/rewired-gh/tokenguard/internal/storage"
)

// bundlePreview caps the groups embedded in the JSON document.
const bundlePreview = 5

// Document is the JSON report.
type Document struct {
	GeneratedAt         time.Time            `json:"generated_at"`
	AnalysisID          string               `json:"analysis_id"`
	TokenAddress        string               `json:"token_address"`
	Token               models.TokenInfo     `json:"token_info"`
	Risk                models.RiskReport    `json:"risk"`
	Traders             TraderStats          `json:"trader_analysis"`
	Bundles             BundleStats          `json:"bundle_analysis"`
	BundleGroupsPreview []models.BundleGroup `json:"bundle_groups_preview"`
	Charts              ChartData            `json:"charts"`
	Warnings            []string             `json:"warnings,omitempty"`
}

// TraderStats is the trader summary without per-wallet details.
type TraderStats struct {
	TotalWallets  int                `json:"total_wallets"`
	Counts        models.LabelCounts `json:"counts"`
	BotPercentage float64            `json:"bot_percentage"`
}

// BundleStats is the bundle summary without the group list.
type BundleStats struct {
	TotalBundles      int     `json:"total_bundles"`
	SuspiciousBundles int     `json:"suspicious_bundles"`
	BundledWallets    int     `json:"bundled_wallets"`
	TotalWallets      int     `json:"total_wallets"`
	BundledPercentage float64 `json:"bundled_wallet_percentage"`
}

// ChartData is the plotting input: label distribution, bundle sizes and the
// factor breakdown.
type ChartData struct {
	Labels      []LabelCount   `json:"labels"`
	BundleSizes []int          `json:"bundle_sizes"`
	Factors     []FactorPoints `json:"factors"`
}

type LabelCount struct {
	Label models.TraderLabel `json:"label"`
	Count int                `json:"count"`
}

type FactorPoints struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// NewDocument builds the JSON report of an analysis.
func NewDocument(a *models.Analysis) Document {
	doc := Document{
		GeneratedAt:  a.AnalyzedAt,
		AnalysisID:   a.ID,
		TokenAddress: a.TokenAddress,
		Token:        a.Token,
		Risk:         a.Risk,
		Traders: TraderStats{
			TotalWallets:  a.Traders.TotalWallets,
			Counts:        a.Traders.Counts,
			BotPercentage: a.Traders.BotPercentage,
		},
		Bundles: BundleStats{
			TotalBundles:      a.Bundles.TotalBundles,
			SuspiciousBundles: a.Bundles.SuspiciousBundles,
			BundledWallets:    a.Bundles.BundledWallets,
			TotalWallets:      a.Bundles.TotalWallets,
			BundledPercentage: a.Bundles.BundledPercentage,
		},
		BundleGroupsPreview: a.Bundles.Groups,
		Charts:              chartData(a),
		Warnings:            a.Warnings,
	}
	if len(doc.BundleGroupsPreview) > bundlePreview {
		doc.BundleGroupsPreview = doc.BundleGroupsPreview[:bundlePreview]
	}
	if doc.BundleGroupsPreview == nil {
		doc.BundleGroupsPreview = []models.BundleGroup{}
	}
	return doc
}

func chartData(a *models.Analysis) ChartData {
	c := ChartData{
		Labels:      make([]LabelCount, 0, len(models.AllLabels)),
		BundleSizes: make([]int, 0, len(a.Bundles.Groups)),
		Factors:     make([]FactorPoints, 0, len(a.Risk.Factors)),
	}
	for _, l := range models.AllLabels {
		c.Labels = append(c.Labels, LabelCount{Label: l, Count: a.Traders.Counts[l]})
	}
	for _, g := range a.Bundles.Groups {
		c.BundleSizes = append(c.BundleSizes, g.Size())
	}
	for _, f := range a.Risk.Factors {
		c.Factors = append(c.Factors, FactorPoints{Name: f.Name, Points: f.Points})
	}
	return c
}

// WriteJSON writes the JSON report into dir and returns its path.
func WriteJSON(dir string, a *models.Analysis) (string, error) {
	path := filepath.Join(dir, fileName(a, "json"))
	if err := storage.WriteJSON(path, NewDocument(a)); err != nil {
		return "", fmt.Errorf("failed to write json report: %w", err)
	}
	return path, nil
}

// fileName is report_<first 8 chars of the mint>_<UTC timestamp>.<ext>.
func fileName(a *models.Analysis, ext string) string {
	prefix := a.TokenAddress
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("report_%s_%s.%s", prefix, a.AnalyzedAt.UTC().Format("20060102T150405Z"), ext)
}
