package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/tokenguard/internal/models"
)

func analysis(level models.RiskLevel, score int) *models.Analysis {
	return &models.Analysis{
		TokenAddress: "mint1",
		Traders: models.TraderSummary{
			TotalWallets:  10,
			Counts:        models.LabelCounts{models.LabelRealTrader: 7, models.LabelBot: 3},
			BotPercentage: 42.5,
		},
		Bundles: models.BundleSummary{
			TotalBundles:      4,
			SuspiciousBundles: 1,
			BundledPercentage: 30,
		},
		Risk: models.RiskReport{TotalScore: score, Level: level},
	}
}

func TestObserveAnalysis(t *testing.T) {
	m := New()
	m.ObserveAnalysis(analysis(models.RiskHigh, 60))
	m.ObserveAnalysis(analysis(models.RiskHigh, 65))
	m.ObserveAnalysis(analysis(models.RiskLow, 10))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Analyses.WithLabelValues("HIGH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Analyses.WithLabelValues("LOW")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.RiskScore.WithLabelValues("mint1")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Wallets.WithLabelValues("mint1", "bot")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Wallets.WithLabelValues("mint1", "sybil")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Bundles.WithLabelValues("mint1", "true")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Bundles.WithLabelValues("mint1", "false")))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.BundledPercent.WithLabelValues("mint1")))
	assert.Equal(t, 42.5, testutil.ToFloat64(m.BotPercent.WithLabelValues("mint1")))
	assert.Equal(t, 4, testutil.CollectAndCount(m.Wallets))
}

func TestObserveFetch(t *testing.T) {
	m := New()
	m.ObserveFetch(2*time.Second, nil)
	m.ObserveFetch(time.Second, errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDuration))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveAnalysis(analysis(models.RiskCritical, 90))

	path := filepath.Join(t.TempDir(), "nested", "tokenguard.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `tokenguard_analyses_total{level="CRITICAL"} 1`)
	assert.Contains(t, text, `tokenguard_risk_score{token="mint1"} 90`)
	assert.True(t, strings.Contains(text, "# HELP tokenguard_fetch_duration_seconds"))
}
