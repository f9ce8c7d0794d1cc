// Package metrics exposes run results as Prometheus metrics written to a
// node_exporter textfile, so scheduled checks can be scraped without a server.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rewired-gh/tokenguard/internal/models"
)

// Metrics holds the collectors of one process on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Analyses       *prometheus.CounterVec
	RiskScore      *prometheus.GaugeVec
	Wallets        *prometheus.GaugeVec
	Bundles        *prometheus.GaugeVec
	BundledPercent *prometheus.GaugeVec
	BotPercent     *prometheus.GaugeVec
	FetchDuration  prometheus.Histogram
	FetchFailures  prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenguard_analyses_total",
			Help: "Total number of completed analyses by risk level",
		}, []string{"level"}),
		RiskScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tokenguard_risk_score",
			Help: "Composite risk score (0-100) of the last analysis per token",
		}, []string{"token"}),
		Wallets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tokenguard_wallets",
			Help: "Classified wallets of the last analysis per token and label",
		}, []string{"token", "label"}),
		Bundles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tokenguard_bundles",
			Help: "Bundle groups of the last analysis per token (suspicious=true|false)",
		}, []string{"token", "suspicious"}),
		BundledPercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tokenguard_bundled_wallet_percent",
			Help: "Percentage of transacting wallets inside a bundle",
		}, []string{"token"}),
		BotPercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tokenguard_bot_percent",
			Help: "Percentage of transactions made by bot wallets",
		}, []string{"token"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tokenguard_fetch_duration_seconds",
			Help:    "Time spent fetching on-chain and external data",
			Buckets: prometheus.DefBuckets,
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokenguard_fetch_failures_total",
			Help: "Total number of fetches that returned no snapshot",
		}),
	}
	m.registry.MustRegister(
		m.Analyses, m.RiskScore, m.Wallets, m.Bundles,
		m.BundledPercent, m.BotPercent, m.FetchDuration, m.FetchFailures,
	)
	return m
}

// Registry returns the gatherer backing m.
func (m *Metrics) Registry() prometheus.Gatherer {
	return m.registry
}

// ObserveFetch records one fetch attempt.
func (m *Metrics) ObserveFetch(d time.Duration, err error) {
	m.FetchDuration.Observe(d.Seconds())
	if err != nil {
		m.FetchFailures.Inc()
	}
}

// ObserveAnalysis records the outcome of one analysis.
func (m *Metrics) ObserveAnalysis(a *models.Analysis) {
	token := a.TokenAddress
	m.Analyses.WithLabelValues(string(a.Risk.Level)).Inc()
	m.RiskScore.WithLabelValues(token).Set(float64(a.Risk.TotalScore))
	for _, l := range models.AllLabels {
		m.Wallets.WithLabelValues(token, string(l)).Set(float64(a.Traders.Counts[l]))
	}
	suspicious := a.Bundles.SuspiciousBundles
	m.Bundles.WithLabelValues(token, "true").Set(float64(suspicious))
	m.Bundles.WithLabelValues(token, "false").Set(float64(a.Bundles.TotalBundles - suspicious))
	m.BundledPercent.WithLabelValues(token).Set(a.Bundles.BundledPercentage)
	m.BotPercent.WithLabelValues(token).Set(a.Traders.BotPercentage)
}

// WriteTextfile writes the current values in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
