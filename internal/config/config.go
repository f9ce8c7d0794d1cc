package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rewired-gh/tokenguard/internal/analyzer"
	"github.com/rewired-gh/tokenguard/internal/bundle"
	"github.com/rewired-gh/tokenguard/internal/fetcher"
	"github.com/rewired-gh/tokenguard/internal/models"
	"github.com/rewired-gh/tokenguard/internal/risk"
	"github.com/rewired-gh/tokenguard/internal/trader"
)

// Config represents the complete application configuration
type Config struct {
	Helius   HeliusConfig   `mapstructure:"helius"`
	RugCheck RugCheckConfig `mapstructure:"rugcheck"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Trader   TraderConfig   `mapstructure:"trader"`
	Bundle   BundleConfig   `mapstructure:"bundle"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Output   OutputConfig   `mapstructure:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// HeliusConfig holds Helius RPC and enhanced API configuration
type HeliusConfig struct {
	APIKey           string `mapstructure:"api_key"`
	RPCURL           string `mapstructure:"rpc_url"`
	APIURL           string `mapstructure:"api_url"`
	TransactionLimit int    `mapstructure:"transaction_limit"`
}

// RugCheckConfig holds RugCheck API configuration
type RugCheckConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Enabled bool   `mapstructure:"enabled"`
}

// FetchConfig holds transport settings shared by all remote reads
type FetchConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// TraderConfig holds the trader classification thresholds
type TraderConfig struct {
	BotMinTxns           int           `mapstructure:"bot_min_txns"`
	BotMaxAvgInterval    time.Duration `mapstructure:"bot_max_avg_interval"`
	BotMaxIntervalCV     float64       `mapstructure:"bot_max_interval_cv"`
	WashWindow           time.Duration `mapstructure:"wash_window"`
	WashAmountTolerance  float64       `mapstructure:"wash_amount_tolerance"`
	WashMinCycles        int           `mapstructure:"wash_min_cycles"`
	SybilTimeTolerance   time.Duration `mapstructure:"sybil_time_tolerance"`
	SybilAmountTolerance float64       `mapstructure:"sybil_amount_tolerance"`
	SybilMinPeers        int           `mapstructure:"sybil_min_peers"`
	SybilMinTxns         int           `mapstructure:"sybil_min_txns"`
}

// BundleConfig holds the bundle detection policy
type BundleConfig struct {
	MinBlockWallets   int  `mapstructure:"min_block_wallets"`
	IncludeSells      bool `mapstructure:"include_sells"`
	MinSharedWallets  int  `mapstructure:"min_shared_wallets"`
	MaxGroupBlocks    int  `mapstructure:"max_group_blocks"`
	SuspiciousMinSize int  `mapstructure:"suspicious_min_size"`
	EarlyBlockWindow  int  `mapstructure:"early_block_window"`
}

// RiskConfig holds the factor points and trigger thresholds
type RiskConfig struct {
	MintAuthorityPoints       int     `mapstructure:"mint_authority_points"`
	FreezeAuthorityPoints     int     `mapstructure:"freeze_authority_points"`
	ConcentrationHighPoints   int     `mapstructure:"concentration_high_points"`
	ConcentrationMediumPoints int     `mapstructure:"concentration_medium_points"`
	BundlerPoints             int     `mapstructure:"bundler_points"`
	BotPoints                 int     `mapstructure:"bot_points"`
	NoLiquidityPoints         int     `mapstructure:"no_liquidity_points"`
	ExternalPoints            int     `mapstructure:"external_points"`
	ConcentrationHighAbove    float64 `mapstructure:"concentration_high_above"`
	ConcentrationMediumAbove  float64 `mapstructure:"concentration_medium_above"`
	BundledAbove              float64 `mapstructure:"bundled_above"`
	BotAbove                  float64 `mapstructure:"bot_above"`
	ExternalAbove             int     `mapstructure:"external_above"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Enabled  bool   `mapstructure:"enabled"`
	MinLevel string `mapstructure:"min_level"`
}

// OutputConfig holds report output configuration
type OutputConfig struct {
	Dir      string `mapstructure:"dir"`
	HTML     bool   `mapstructure:"html"`
	JSONOnly bool   `mapstructure:"json_only"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds Prometheus textfile configuration
type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	TextfilePath string `mapstructure:"textfile_path"`
}

// legacyEnv maps config keys to the plain environment variable names the
// tool has always accepted, next to the TOKENGUARD_ prefixed ones.
var legacyEnv = map[string]string{
	"helius.api_key":   "HELIUS_API_KEY",
	"rugcheck.api_key": "RUGCHECK_API_KEY",
	"output.dir":       "OUTPUT_DIR",
}

// Load reads configuration from an optional file and environment variables.
// An empty path, or a path that does not exist, yields defaults plus
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("TOKENGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := "TOKENGUARD_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	// Read config file
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Helius defaults
	v.SetDefault("helius.api_key", "")
	v.SetDefault("helius.rpc_url", "https://mainnet.helius-rpc.com/")
	v.SetDefault("helius.api_url", "https://api.helius.xyz")
	v.SetDefault("helius.transaction_limit", 100)

	// RugCheck defaults
	v.SetDefault("rugcheck.api_key", "")
	v.SetDefault("rugcheck.base_url", "https://api.rugcheck.xyz/v1")
	v.SetDefault("rugcheck.enabled", true)

	// Fetch defaults
	v.SetDefault("fetch.timeout", "20s")
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.retry_delay", "1s")
	v.SetDefault("fetch.requests_per_second", 10)
	v.SetDefault("fetch.cache_ttl", "5m")

	// Trader defaults
	th := trader.DefaultThresholds()
	v.SetDefault("trader.bot_min_txns", th.BotMinTxns)
	v.SetDefault("trader.bot_max_avg_interval", th.BotMaxAvgInterval.String())
	v.SetDefault("trader.bot_max_interval_cv", th.BotMaxIntervalCV)
	v.SetDefault("trader.wash_window", th.WashWindow.String())
	v.SetDefault("trader.wash_amount_tolerance", th.WashAmountTolerance)
	v.SetDefault("trader.wash_min_cycles", th.WashMinCycles)
	v.SetDefault("trader.sybil_time_tolerance", th.SybilTimeTolerance.String())
	v.SetDefault("trader.sybil_amount_tolerance", th.SybilAmountTolerance)
	v.SetDefault("trader.sybil_min_peers", th.SybilMinPeers)
	v.SetDefault("trader.sybil_min_txns", th.SybilMinTxns)

	// Bundle defaults
	p := bundle.DefaultPolicy()
	v.SetDefault("bundle.min_block_wallets", p.MinBlockWallets)
	v.SetDefault("bundle.include_sells", p.IncludeSells)
	v.SetDefault("bundle.min_shared_wallets", p.MinSharedWallets)
	v.SetDefault("bundle.max_group_blocks", p.MaxGroupBlocks)
	v.SetDefault("bundle.suspicious_min_size", p.SuspiciousMinSize)
	v.SetDefault("bundle.early_block_window", p.EarlyBlockWindow)

	// Risk defaults
	w := risk.DefaultWeights()
	v.SetDefault("risk.mint_authority_points", w.MintAuthority)
	v.SetDefault("risk.freeze_authority_points", w.FreezeAuthority)
	v.SetDefault("risk.concentration_high_points", w.ConcentrationHigh)
	v.SetDefault("risk.concentration_medium_points", w.ConcentrationMedium)
	v.SetDefault("risk.bundler_points", w.Bundlers)
	v.SetDefault("risk.bot_points", w.Bots)
	v.SetDefault("risk.no_liquidity_points", w.NoLiquidity)
	v.SetDefault("risk.external_points", w.External)
	v.SetDefault("risk.concentration_high_above", w.ConcentrationHighAbove)
	v.SetDefault("risk.concentration_medium_above", w.ConcentrationMediumAbove)
	v.SetDefault("risk.bundled_above", w.BundledAbove)
	v.SetDefault("risk.bot_above", w.BotAbove)
	v.SetDefault("risk.external_above", w.ExternalAbove)

	// Telegram defaults
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.min_level", string(models.RiskHigh))

	// Output defaults
	v.SetDefault("output.dir", "./output")
	v.SetDefault("output.html", false)
	v.SetDefault("output.json_only", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.textfile_path", "./output/tokenguard.prom")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Helius config
	if c.Helius.RPCURL == "" {
		return fmt.Errorf("helius.rpc_url is required")
	}
	if c.Helius.APIURL == "" {
		return fmt.Errorf("helius.api_url is required")
	}
	if c.Helius.TransactionLimit < 1 || c.Helius.TransactionLimit > 100 {
		return fmt.Errorf("helius.transaction_limit must be between 1 and 100")
	}
	if c.RugCheck.Enabled && c.RugCheck.BaseURL == "" {
		return fmt.Errorf("rugcheck.base_url is required when rugcheck is enabled")
	}

	// Validate Fetch config
	if c.Fetch.Timeout < time.Second {
		return fmt.Errorf("fetch.timeout must be at least 1 second")
	}
	if c.Fetch.MaxRetries < 1 {
		return fmt.Errorf("fetch.max_retries must be at least 1")
	}
	if c.Fetch.RetryDelay < 0 {
		return fmt.Errorf("fetch.retry_delay must not be negative")
	}
	if c.Fetch.RequestsPerSecond < 0 {
		return fmt.Errorf("fetch.requests_per_second must not be negative")
	}

	// Validate Trader config
	if c.Trader.BotMinTxns < 1 {
		return fmt.Errorf("trader.bot_min_txns must be at least 1")
	}
	if c.Trader.BotMaxAvgInterval <= 0 {
		return fmt.Errorf("trader.bot_max_avg_interval must be positive")
	}
	if c.Trader.BotMaxIntervalCV < 0 {
		return fmt.Errorf("trader.bot_max_interval_cv must not be negative")
	}
	if c.Trader.WashWindow <= 0 {
		return fmt.Errorf("trader.wash_window must be positive")
	}
	if c.Trader.WashAmountTolerance < 0 || c.Trader.WashAmountTolerance > 1 {
		return fmt.Errorf("trader.wash_amount_tolerance must be between 0.0 and 1.0")
	}
	if c.Trader.WashMinCycles < 1 {
		return fmt.Errorf("trader.wash_min_cycles must be at least 1")
	}
	if c.Trader.SybilTimeTolerance < 0 {
		return fmt.Errorf("trader.sybil_time_tolerance must not be negative")
	}
	if c.Trader.SybilAmountTolerance < 0 || c.Trader.SybilAmountTolerance > 1 {
		return fmt.Errorf("trader.sybil_amount_tolerance must be between 0.0 and 1.0")
	}
	if c.Trader.SybilMinPeers < 1 {
		return fmt.Errorf("trader.sybil_min_peers must be at least 1")
	}

	// Validate Bundle config
	if c.Bundle.MinBlockWallets < 2 {
		return fmt.Errorf("bundle.min_block_wallets must be at least 2")
	}
	if c.Bundle.MinSharedWallets < 1 {
		return fmt.Errorf("bundle.min_shared_wallets must be at least 1")
	}
	if c.Bundle.MaxGroupBlocks < 0 {
		return fmt.Errorf("bundle.max_group_blocks must not be negative")
	}
	if c.Bundle.EarlyBlockWindow < 0 {
		return fmt.Errorf("bundle.early_block_window must not be negative")
	}

	// Validate Risk config
	points := []struct {
		key string
		v   int
	}{
		{"risk.mint_authority_points", c.Risk.MintAuthorityPoints},
		{"risk.freeze_authority_points", c.Risk.FreezeAuthorityPoints},
		{"risk.concentration_high_points", c.Risk.ConcentrationHighPoints},
		{"risk.concentration_medium_points", c.Risk.ConcentrationMediumPoints},
		{"risk.bundler_points", c.Risk.BundlerPoints},
		{"risk.bot_points", c.Risk.BotPoints},
		{"risk.no_liquidity_points", c.Risk.NoLiquidityPoints},
		{"risk.external_points", c.Risk.ExternalPoints},
	}
	for _, p := range points {
		if p.v < 0 || p.v > 100 {
			return fmt.Errorf("%s must be between 0 and 100", p.key)
		}
	}
	if c.Risk.ConcentrationMediumAbove > c.Risk.ConcentrationHighAbove {
		return fmt.Errorf("risk.concentration_medium_above must not exceed risk.concentration_high_above")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if _, ok := models.ParseRiskLevel(strings.ToUpper(c.Telegram.MinLevel)); !ok {
		return fmt.Errorf("telegram.min_level must be one of: LOW, MEDIUM, HIGH, CRITICAL")
	}

	// Validate Output config
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	// Validate Metrics config
	if c.Metrics.Enabled && c.Metrics.TextfilePath == "" {
		return fmt.Errorf("metrics.textfile_path is required when metrics is enabled")
	}

	return nil
}

// ValidateForFetch validates the configuration for a run that talks to the
// remote APIs, which additionally needs a Helius API key.
func (c *Config) ValidateForFetch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Helius.APIKey == "" {
		return fmt.Errorf("helius.api_key is required (set HELIUS_API_KEY)")
	}
	return nil
}

// MinAlertLevel returns the lowest risk level that triggers a Telegram alert.
func (c *Config) MinAlertLevel() models.RiskLevel {
	l, ok := models.ParseRiskLevel(strings.ToUpper(c.Telegram.MinLevel))
	if !ok {
		return models.RiskHigh
	}
	return l
}

// TraderThresholds maps the trader section onto the classifier table.
func (c *Config) TraderThresholds() trader.Thresholds {
	t := c.Trader
	return trader.Thresholds{
		BotMinTxns:           t.BotMinTxns,
		BotMaxAvgInterval:    t.BotMaxAvgInterval,
		BotMaxIntervalCV:     t.BotMaxIntervalCV,
		WashWindow:           t.WashWindow,
		WashAmountTolerance:  t.WashAmountTolerance,
		WashMinCycles:        t.WashMinCycles,
		SybilTimeTolerance:   t.SybilTimeTolerance,
		SybilAmountTolerance: t.SybilAmountTolerance,
		SybilMinPeers:        t.SybilMinPeers,
		SybilMinTxns:         t.SybilMinTxns,
	}
}

// BundlePolicy maps the bundle section onto the detector policy.
func (c *Config) BundlePolicy() bundle.Policy {
	b := c.Bundle
	return bundle.Policy{
		MinBlockWallets:   b.MinBlockWallets,
		IncludeSells:      b.IncludeSells,
		MinSharedWallets:  b.MinSharedWallets,
		MaxGroupBlocks:    b.MaxGroupBlocks,
		SuspiciousMinSize: b.SuspiciousMinSize,
		EarlyBlockWindow:  b.EarlyBlockWindow,
	}
}

// RiskWeights maps the risk section onto the scorer weights.
func (c *Config) RiskWeights() risk.Weights {
	r := c.Risk
	return risk.Weights{
		MintAuthority:            r.MintAuthorityPoints,
		FreezeAuthority:          r.FreezeAuthorityPoints,
		ConcentrationHigh:        r.ConcentrationHighPoints,
		ConcentrationMedium:      r.ConcentrationMediumPoints,
		Bundlers:                 r.BundlerPoints,
		Bots:                     r.BotPoints,
		NoLiquidity:              r.NoLiquidityPoints,
		External:                 r.ExternalPoints,
		ConcentrationHighAbove:   r.ConcentrationHighAbove,
		ConcentrationMediumAbove: r.ConcentrationMediumAbove,
		BundledAbove:             r.BundledAbove,
		BotAbove:                 r.BotAbove,
		ExternalAbove:            r.ExternalAbove,
	}
}

// AnalyzerSettings returns the policy tables of every analysis stage.
func (c *Config) AnalyzerSettings() analyzer.Settings {
	return analyzer.Settings{
		Thresholds: c.TraderThresholds(),
		Policy:     c.BundlePolicy(),
		Weights:    c.RiskWeights(),
	}
}

// FetcherConfig returns the fetcher client configuration. An empty
// RugCheckURL disables the RugCheck lookup.
func (c *Config) FetcherConfig() fetcher.Config {
	fc := fetcher.Config{
		HeliusRPCURL:      c.Helius.RPCURL,
		HeliusAPIURL:      c.Helius.APIURL,
		HeliusAPIKey:      c.Helius.APIKey,
		RugCheckAPIKey:    c.RugCheck.APIKey,
		Timeout:           c.Fetch.Timeout,
		MaxRetries:        c.Fetch.MaxRetries,
		RetryDelay:        c.Fetch.RetryDelay,
		RequestsPerSecond: c.Fetch.RequestsPerSecond,
		TransactionLimit:  c.Helius.TransactionLimit,
		CacheTTL:          c.Fetch.CacheTTL,
	}
	if c.RugCheck.Enabled {
		fc.RugCheckURL = c.RugCheck.BaseURL
	}
	return fc
}
