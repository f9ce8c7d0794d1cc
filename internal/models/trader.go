// Package models defines the domain entities shared by the tokenguard pipeline:
// fetched input (token metadata, holders, swaps) and the output of each stage
// (trader labels, bundle groups, the risk report).
//
// Stage outputs are built once per run and never mutated afterwards.
package models

import "time"

// TraderLabel classifies the trading behaviour of one wallet.
type TraderLabel string

const (
	LabelRealTrader TraderLabel = "real_trader"
	LabelBot        TraderLabel = "bot"
	LabelWashTrader TraderLabel = "wash_trader"
	LabelSybil      TraderLabel = "sybil"
)

// AllLabels lists every label in display order.
var AllLabels = []TraderLabel{LabelRealTrader, LabelBot, LabelWashTrader, LabelSybil}

// Valid reports whether l is one of the known labels.
func (l TraderLabel) Valid() bool {
	switch l {
	case LabelRealTrader, LabelBot, LabelWashTrader, LabelSybil:
		return true
	}
	return false
}

// WalletProfile holds the attributes derived from a wallet's transactions
// together with the label assigned to it.
type WalletProfile struct {
	Address              string        `json:"address"`
	Label                TraderLabel   `json:"label"`
	TxCount              int           `json:"tx_count"`
	AvgInterval          time.Duration `json:"avg_interval"`
	IntervalCV           float64       `json:"interval_cv"` // coefficient of variation of intervals
	BuySellRatio         float64       `json:"buy_sell_ratio"`
	UniqueCounterparties int           `json:"unique_counterparties"`
	WashCycles           int           `json:"wash_cycles"`
	SybilPeers           []string      `json:"sybil_peers,omitempty"`
}

// LabelCounts counts wallets per label.
type LabelCounts map[TraderLabel]int

// Total returns the number of counted wallets.
func (c LabelCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}
