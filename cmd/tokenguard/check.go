package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/tokenguard/internal/analyzer"
	"github.com/rewired-gh/tokenguard/internal/config"
	"github.com/rewired-gh/tokenguard/internal/fetcher"
	"github.com/rewired-gh/tokenguard/internal/logger"
	"github.com/rewired-gh/tokenguard/internal/metrics"
	"github.com/rewired-gh/tokenguard/internal/models"
	"github.com/rewired-gh/tokenguard/internal/report"
	"github.com/rewired-gh/tokenguard/internal/storage"
	"github.com/rewired-gh/tokenguard/internal/telegram"
)

// errCriticalRisk makes the process exit non-zero for CRITICAL tokens so the
// command can gate scripts.
var errCriticalRisk = errors.New("risk level is CRITICAL")

type checkOptions struct {
	outputDir    string
	jsonOnly     bool
	html         bool
	input        string
	saveSnapshot string
}

func checkCmd() *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "check [mint]",
		Short: "Analyze a token and write its risk report",
		Long: `Fetch data for the given mint (or load it from --input), run the trader
classifier, the bundle detector and the risk scorer, then write the JSON
report and print a dashboard. Exits 1 when the token scores CRITICAL.`,
		Example: `  tokenguard check DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263
  tokenguard check --input snapshot.json --html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mint := ""
			if len(args) == 1 {
				mint = args[0]
			}
			if mint == "" && opts.input == "" {
				return errors.New("a mint address or --input is required")
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), mint, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for reports (overrides output.dir)")
	cmd.Flags().BoolVar(&opts.jsonOnly, "json-only", false, "Write the JSON report without printing the dashboard")
	cmd.Flags().BoolVar(&opts.html, "html", false, "Also write an HTML report")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Analyze a saved snapshot instead of fetching")
	cmd.Flags().StringVar(&opts.saveSnapshot, "save-snapshot", "", "Save the fetched snapshot to this file")
	return cmd
}

func runCheck(ctx context.Context, out io.Writer, mint string, opts checkOptions) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if opts.outputDir != "" {
		cfg.Output.Dir = opts.outputDir
	}
	cfg.Output.JSONOnly = cfg.Output.JSONOnly || opts.jsonOnly
	cfg.Output.HTML = cfg.Output.HTML || opts.html

	if opts.input == "" {
		err = cfg.ValidateForFetch()
	} else {
		err = cfg.Validate()
	}
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	defer logger.Sync()
	logger.Debug("Configuration loaded from %s", cfgFile)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	snap, err := loadSnapshot(ctx, cfg, mint, opts.input, m)
	if err != nil {
		return err
	}
	if opts.saveSnapshot != "" {
		if err := storage.SaveSnapshot(opts.saveSnapshot, snap); err != nil {
			return err
		}
		logger.Info("Snapshot saved to %s", opts.saveSnapshot)
	}

	a, err := analyzer.New(cfg.AnalyzerSettings(), logger.L()).Analyze(snap)
	if err != nil {
		return err
	}
	for _, w := range a.Warnings {
		logger.Warn("%s", w)
	}

	jsonPath, err := report.WriteJSON(cfg.Output.Dir, a)
	if err != nil {
		return err
	}
	logger.Info("JSON report written to %s", jsonPath)
	if cfg.Output.HTML {
		htmlPath, err := report.WriteHTML(cfg.Output.Dir, a)
		if err != nil {
			return err
		}
		logger.Info("HTML report written to %s", htmlPath)
	}

	if cfg.Output.JSONOnly {
		fmt.Fprintln(out, jsonPath)
	} else if err := report.PrintDashboard(out, a); err != nil {
		return err
	}

	notify(cfg, a)

	if m != nil {
		m.ObserveAnalysis(a)
		if err := m.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Warn("Failed to write metrics: %v", err)
		}
	}

	if a.Risk.Level == models.RiskCritical {
		return errCriticalRisk
	}
	return nil
}

// loadSnapshot reads the snapshot from input, or fetches it for mint.
func loadSnapshot(ctx context.Context, cfg *config.Config, mint, input string, m *metrics.Metrics) (models.Snapshot, error) {
	if input != "" {
		snap, err := storage.LoadSnapshot(input)
		if err != nil {
			return models.Snapshot{}, err
		}
		if mint != "" && mint != snap.TokenAddress {
			return models.Snapshot{}, fmt.Errorf("snapshot %s is for %s, not %s", input, snap.TokenAddress, mint)
		}
		logger.Info("Loaded snapshot for %s (%d transactions, %d holders)",
			snap.TokenAddress, len(snap.Transactions), len(snap.Holders))
		return snap, nil
	}

	logger.Info("Fetching data for %s", mint)
	start := time.Now()
	snap, err := fetcher.New(cfg.FetcherConfig()).GetAll(ctx, mint)
	if m != nil {
		m.ObserveFetch(time.Since(start), err)
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to fetch token data: %w", err)
	}
	logger.Info("Fetched %d transactions and %d holders in %v",
		len(snap.Transactions), len(snap.Holders), time.Since(start).Round(time.Millisecond))
	return snap, nil
}

// notify sends the Telegram alert. Failures are logged, never fatal.
func notify(cfg *config.Config, a *models.Analysis) {
	if !cfg.Telegram.Enabled {
		logger.Debug("Telegram notifications disabled")
		return
	}
	client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Fetch.MaxRetries, cfg.Fetch.RetryDelay)
	if err != nil {
		logger.Warn("Failed to initialize Telegram client: %v", err)
		return
	}
	sent, err := client.SendAlert(a, cfg.MinAlertLevel())
	if err != nil {
		logger.Warn("Failed to send Telegram alert: %v", err)
		return
	}
	if sent {
		logger.Info("Telegram alert sent for %s (%s)", a.TokenAddress, a.Risk.Level)
	}
}
