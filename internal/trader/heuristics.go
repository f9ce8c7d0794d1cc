package trader

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rewired-gh/tokenguard/internal/models"
)

// isBot reports statistically regular, high-frequency activity. A wallet
// needs strictly more than BotMinTxns transactions before timing is judged.
func isBot(p models.WalletProfile, th Thresholds) bool {
	if p.TxCount <= th.BotMinTxns || p.TxCount < 2 {
		return false
	}
	if th.BotMaxAvgInterval > 0 && p.AvgInterval < th.BotMaxAvgInterval {
		return true
	}
	return th.BotMaxIntervalCV > 0 && p.IntervalCV <= th.BotMaxIntervalCV
}

// washCycles counts round trips against the same counterparty. txs must be
// chronological. An open leg is closed by the next opposite-direction leg
// inside the window with an offsetting amount; anything else replaces it.
func washCycles(txs []models.Transaction, th Thresholds) int {
	if len(txs) < 2 {
		return 0
	}

	legs := make(map[string][]models.Transaction)
	for _, tx := range txs {
		cp := tx.Counterparty()
		if cp == "" {
			continue
		}
		legs[cp] = append(legs[cp], tx)
	}
	keys := make([]string, 0, len(legs))
	for k := range legs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cycles := 0
	for _, cp := range keys {
		var open *models.Transaction
		for i := range legs[cp] {
			tx := &legs[cp][i]
			if open != nil &&
				open.Direction != tx.Direction &&
				tx.Timestamp.Sub(open.Timestamp) <= th.WashWindow &&
				amountsClose(open.Amount, tx.Amount, th.WashAmountTolerance) {
				cycles++
				open = nil
				continue
			}
			open = tx
		}
	}
	return cycles
}

// sybilPeers finds, for every wallet, the other wallets sharing its
// behavioural fingerprint. Wallets are first bucketed by an exact key
// (transaction count and direction sequence) so only candidates that can
// possibly match are compared pairwise. addresses must be sorted.
func sybilPeers(byWallet map[string][]models.Transaction, addresses []string, th Thresholds) map[string][]string {
	minTxns := th.SybilMinTxns
	if minTxns < 1 {
		minTxns = 1
	}

	buckets := make(map[string][]string)
	for _, addr := range addresses {
		txs := byWallet[addr]
		if len(txs) < minTxns {
			continue
		}
		key := fingerprintKey(txs)
		buckets[key] = append(buckets[key], addr)
	}
	keys := make([]string, 0, len(buckets))
	for k, members := range buckets {
		if len(members) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	peers := make(map[string][]string)
	for _, k := range keys {
		members := buckets[k]
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := members[i], members[j]
				if similar(byWallet[a], byWallet[b], th) {
					peers[a] = append(peers[a], b)
					peers[b] = append(peers[b], a)
				}
			}
		}
	}
	for addr := range peers {
		sort.Strings(peers[addr])
	}
	return peers
}

// fingerprintKey is the exact-match bucket key: count plus direction sequence.
func fingerprintKey(txs []models.Transaction) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(txs)))
	b.WriteByte('|')
	for _, tx := range txs {
		if tx.Direction == models.DirectionBuy {
			b.WriteByte('b')
		} else {
			b.WriteByte('s')
		}
	}
	return b.String()
}

// similar compares two chronological transaction lists of equal length.
func similar(a, b []models.Transaction, th Thresholds) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for i := range a {
		d := a[i].Timestamp.Sub(b[i].Timestamp)
		if d < 0 {
			d = -d
		}
		if d > th.SybilTimeTolerance {
			return false
		}
		if !amountsClose(a[i].Amount, b[i].Amount, th.SybilAmountTolerance) {
			return false
		}
	}
	return equalStrings(counterpartySet(a), counterpartySet(b))
}

// amountsClose reports whether a and b differ by at most tol relative to the larger.
func amountsClose(a, b, tol float64) bool {
	hi := math.Max(math.Abs(a), math.Abs(b))
	if hi == 0 {
		return true
	}
	return math.Abs(a-b)/hi <= tol
}

func counterpartySet(txs []models.Transaction) []string {
	set := make(map[string]struct{})
	for _, tx := range txs {
		for _, cp := range tx.Counterparties {
			if cp != "" {
				set[cp] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for cp := range set {
		out = append(out, cp)
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
