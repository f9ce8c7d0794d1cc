package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/tokenguard/internal/models"
)

func sampleAnalysis() *models.Analysis {
	ext := 700
	var groups []models.BundleGroup
	for i := 0; i < 7; i++ {
		groups = append(groups, models.BundleGroup{
			ID:         fmt.Sprintf("g%d", i),
			Wallets:    []string{fmt.Sprintf("a%d", i), fmt.Sprintf("b%d", i)},
			Blocks:     []uint64{uint64(100 + i)},
			Cohesion:   1,
			Suspicious: i == 0,
		})
	}
	return &models.Analysis{
		ID:           "0b7e6a52-0000-4000-8000-000000000001",
		TokenAddress: "So11111111111111111111111111111111111111112",
		Token:        models.TokenInfo{Name: "<script>Moon</script>", Symbol: "MOON"},
		Traders: models.TraderSummary{
			TotalWallets:  20,
			Counts:        models.LabelCounts{models.LabelRealTrader: 15, models.LabelBot: 5},
			BotPercentage: 40,
			Profiles:      []models.WalletProfile{{Address: "a0", Label: models.LabelRealTrader}},
		},
		Bundles: models.BundleSummary{
			TotalBundles:      7,
			SuspiciousBundles: 1,
			BundledWallets:    14,
			TotalWallets:      20,
			BundledPercentage: 70,
			Groups:            groups,
		},
		Risk: models.RiskReport{
			TotalScore:        55,
			Level:             models.RiskHigh,
			BundledPercentage: 70,
			BotPercentage:     40,
			Factors:           []models.RiskFactor{{Name: "bundler_percentage_high", Points: 15, Description: "70.00% of wallets traded in coordinated bundles"}, {Name: "external_high_risk", Points: 20, Description: "External risk score 700 exceeds 500"}},
			ExternalScore:     &ext,
		},
		Warnings:   []string{"transaction #3: wallet must not be empty"},
		AnalyzedAt: time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC),
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument(sampleAnalysis())

	assert.Len(t, doc.BundleGroupsPreview, bundlePreview)
	assert.Equal(t, 7, doc.Bundles.TotalBundles)
	assert.Equal(t, []int{2, 2, 2, 2, 2, 2, 2}, doc.Charts.BundleSizes)
	require.Len(t, doc.Charts.Labels, len(models.AllLabels))
	assert.Equal(t, LabelCount{Label: models.LabelRealTrader, Count: 15}, doc.Charts.Labels[0])
	assert.Equal(t, LabelCount{Label: models.LabelSybil, Count: 0}, doc.Charts.Labels[3])
	assert.Equal(t, []FactorPoints{{"bundler_percentage_high", 15}, {"external_high_risk", 20}}, doc.Charts.Factors)
}

func TestNewDocument_EmptyAnalysis(t *testing.T) {
	doc := NewDocument(&models.Analysis{TokenAddress: "x"})
	assert.NotNil(t, doc.BundleGroupsPreview)
	assert.Empty(t, doc.Charts.BundleSizes)
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteJSON(dir, sampleAnalysis())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report_So111111_20250506T070809Z.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	risk := got["risk"].(map[string]any)
	assert.Equal(t, "HIGH", risk["risk_level"])
	assert.Equal(t, float64(55), risk["total_score"])
	assert.Equal(t, float64(700), risk["external_score"])
	assert.NotContains(t, got["trader_analysis"], "profiles")
	assert.Contains(t, got, "charts")
}

func TestRenderHTML(t *testing.T) {
	page, err := RenderHTML(sampleAnalysis())
	require.NoError(t, err)
	html := string(page)

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "#F44336")
	assert.Contains(t, html, "bundler_percentage_high")
	assert.Contains(t, html, "70.0%")
	assert.Contains(t, html, ">700<")
	assert.Contains(t, html, "transaction #3")
	assert.NotContains(t, html, "<script>Moon", "token name must be escaped")
	assert.Contains(t, html, "&lt;script&gt;Moon")
}

func TestRenderHTML_NoFactorsNoExternal(t *testing.T) {
	a := sampleAnalysis()
	a.Risk = models.RiskReport{Level: models.RiskLow, Factors: []models.RiskFactor{}}
	a.Bundles.Groups = nil

	page, err := RenderHTML(a)
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "No risk factors triggered.")
	assert.Contains(t, html, "No bundles detected.")
	assert.Contains(t, html, "n/a")
}

func TestWriteHTML(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteHTML(dir, sampleAnalysis())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".html"))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestDashboard(t *testing.T) {
	out := Dashboard(sampleAnalysis())

	assert.Contains(t, out, "Risk Score: 55/100")
	assert.Contains(t, out, "HIGH")
	assert.Contains(t, out, "bundler_percentage_high")
	assert.Contains(t, out, "Trader Classification (20 wallets)")
	assert.Contains(t, out, "… 2 more")
	assert.Contains(t, out, "1 record(s) skipped")

	var sb strings.Builder
	require.NoError(t, PrintDashboard(&sb, sampleAnalysis()))
	assert.Equal(t, out+"\n", sb.String())
}
