// Package trader labels every wallet seen in a token's swap history as a
// real trader, bot, wash trader or sybil.
//
// Heuristics are applied in a fixed precedence, first match wins:
//
//	wash trader > bot > sybil > real trader
//
// Classification is a pure function of its input. Wallets, counterparties and
// similarity buckets are always walked in sorted order, so identical input
// yields identical labels.
package trader

import (
	"math"
	"sort"
	"time"

	"github.com/rewired-gh/tokenguard/internal/logger"
	"github.com/rewired-gh/tokenguard/internal/models"
)

// Thresholds is the tunable policy table of the classifier.
type Thresholds struct {
	// Bot: more than BotMinTxns transactions and either a mean interval
	// below BotMaxAvgInterval or an interval coefficient of variation at or
	// below BotMaxIntervalCV (0 disables the regularity check).
	BotMinTxns        int
	BotMaxAvgInterval time.Duration
	BotMaxIntervalCV  float64

	// Wash: a buy and a sell against the same counterparty within
	// WashWindow whose amounts differ by at most WashAmountTolerance
	// (relative) form one round trip; WashMinCycles round trips flag.
	WashWindow          time.Duration
	WashAmountTolerance float64
	WashMinCycles       int

	// Sybil: wallets with at least SybilMinTxns transactions are compared
	// position by position; timestamps within SybilTimeTolerance, amounts
	// within SybilAmountTolerance and equal counterparty sets make two
	// wallets similar. SybilMinPeers similar wallets flag.
	SybilTimeTolerance   time.Duration
	SybilAmountTolerance float64
	SybilMinPeers        int
	SybilMinTxns         int
}

// DefaultThresholds returns the built-in policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BotMinTxns:           5,
		BotMaxAvgInterval:    30 * time.Second,
		BotMaxIntervalCV:     0.05,
		WashWindow:           time.Hour,
		WashAmountTolerance:  0.05,
		WashMinCycles:        2,
		SybilTimeTolerance:   2 * time.Second,
		SybilAmountTolerance: 0.01,
		SybilMinPeers:        1,
		SybilMinTxns:         1,
	}
}

// Result is the classifier output.
type Result struct {
	Profiles   []models.WalletProfile // sorted by address
	Labels     map[string]models.TraderLabel
	Counts     models.LabelCounts
	ValidTxs   int
	BotTxShare float64 // percentage of valid transactions made by bot wallets
	Warnings   []error
}

// Classify assigns exactly one label to every wallet in txs. Counterparty
// addresses that never sign a transaction are included with zero usable
// transactions and therefore labelled real traders.
func Classify(txs []models.Transaction, th Thresholds) Result {
	valid, rejected := models.ValidTransactions(txs)

	byWallet := make(map[string][]models.Transaction)
	universe := make(map[string]struct{})
	for _, tx := range valid {
		byWallet[tx.Wallet] = append(byWallet[tx.Wallet], tx)
		universe[tx.Wallet] = struct{}{}
		for _, cp := range tx.Counterparties {
			if cp != "" {
				universe[cp] = struct{}{}
			}
		}
	}
	for _, list := range byWallet {
		sortChronologically(list)
	}

	addresses := make([]string, 0, len(universe))
	for addr := range universe {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)

	peers := sybilPeers(byWallet, addresses, th)

	res := Result{
		Profiles: make([]models.WalletProfile, 0, len(addresses)),
		Labels:   make(map[string]models.TraderLabel, len(addresses)),
		Counts:   models.LabelCounts{},
		ValidTxs: len(valid),
		Warnings: rejected,
	}
	botTxs := 0
	for _, addr := range addresses {
		p := profile(addr, byWallet[addr])
		p.WashCycles = washCycles(byWallet[addr], th)
		p.SybilPeers = peers[addr]
		p.Label = label(p, th)

		res.Profiles = append(res.Profiles, p)
		res.Labels[addr] = p.Label
		res.Counts[p.Label]++
		if p.Label == models.LabelBot {
			botTxs += p.TxCount
		}
	}
	if len(valid) > 0 {
		res.BotTxShare = round2(float64(botTxs) / float64(len(valid)) * 100)
	}

	logger.Debug("Classify: wallets=%d valid_txs=%d skipped=%d real=%d bot=%d wash=%d sybil=%d",
		len(addresses), len(valid), len(rejected),
		res.Counts[models.LabelRealTrader], res.Counts[models.LabelBot],
		res.Counts[models.LabelWashTrader], res.Counts[models.LabelSybil])

	return res
}

// label applies the precedence order to the computed signals.
func label(p models.WalletProfile, th Thresholds) models.TraderLabel {
	switch {
	case th.WashMinCycles > 0 && p.WashCycles >= th.WashMinCycles:
		return models.LabelWashTrader
	case isBot(p, th):
		return models.LabelBot
	case th.SybilMinPeers > 0 && len(p.SybilPeers) >= th.SybilMinPeers:
		return models.LabelSybil
	default:
		return models.LabelRealTrader
	}
}

// profile derives the per-wallet attributes from its chronological transactions.
func profile(addr string, txs []models.Transaction) models.WalletProfile {
	p := models.WalletProfile{Address: addr, TxCount: len(txs)}
	if len(txs) == 0 {
		return p
	}

	buys, sells := 0, 0
	counterparties := make(map[string]struct{})
	for _, tx := range txs {
		if tx.Direction == models.DirectionBuy {
			buys++
		} else {
			sells++
		}
		for _, cp := range tx.Counterparties {
			if cp != "" {
				counterparties[cp] = struct{}{}
			}
		}
	}
	p.BuySellRatio = float64(buys) / math.Max(float64(sells), 1)
	p.UniqueCounterparties = len(counterparties)

	if len(txs) < 2 {
		return p
	}
	intervals := make([]float64, len(txs)-1)
	var sum float64
	for i := 1; i < len(txs); i++ {
		intervals[i-1] = txs[i].Timestamp.Sub(txs[i-1].Timestamp).Seconds()
		sum += intervals[i-1]
	}
	mean := sum / float64(len(intervals))
	var variance float64
	for _, d := range intervals {
		variance += (d - mean) * (d - mean)
	}
	variance /= float64(len(intervals))

	p.AvgInterval = time.Duration(mean * float64(time.Second))
	if mean > 0 {
		p.IntervalCV = math.Sqrt(variance) / mean
	}
	return p
}

// sortChronologically orders a wallet's transactions by time, then block,
// then signature. Input order breaks any remaining tie.
func sortChronologically(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		return a.Signature < b.Signature
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
