// Package bundle finds groups of wallets that bought (optionally sold) in the
// same block, a strong coordination signal on chains with fast deterministic
// block production.
//
// Same-block candidates are merged transitively with a union-find over wallet
// identities. Merging is bounded: a candidate only joins a group it shares at
// least MinSharedWallets wallets with, and no group may span more than
// MaxGroupBlocks blocks. Groups are disjoint by construction.
package bundle

import (
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/rewired-gh/tokenguard/internal/logger"
	"github.com/rewired-gh/tokenguard/internal/models"
)

// groupNamespace seeds the name-based group IDs, so a group keeps its ID
// across runs over the same data.
var groupNamespace = uuid.MustParse("6f1c2a9e-3b7d-4e1f-9a52-0c8d4b7e2f10")

// Policy is the tunable policy table of the detector.
type Policy struct {
	MinBlockWallets   int  // distinct wallets in one block and direction to form a candidate
	IncludeSells      bool // also group same-block sells
	MinSharedWallets  int  // wallets a candidate must share with a group to merge into it
	MaxGroupBlocks    int  // cap on blocks spanned by a merged group, 0 = unbounded
	SuspiciousMinSize int  // groups this large are suspicious
	EarlyBlockWindow  int  // groups touching the first N distinct blocks are suspicious
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy {
	return Policy{
		MinBlockWallets:   2,
		IncludeSells:      false,
		MinSharedWallets:  1,
		MaxGroupBlocks:    8,
		SuspiciousMinSize: 5,
		EarlyBlockWindow:  10,
	}
}

// Result is the detector output.
type Result struct {
	Groups            []models.BundleGroup
	BundledWallets int
	TotalWallets   int // distinct wallets with at least one valid transaction
	// BundledPercentage is BundledWallets over TotalWallets, the transacting
	// wallets, not the token's holder count.
	BundledPercentage float64
	SuspiciousCount   int
	Warnings          []error
}

type candidate struct {
	block     uint64
	direction models.Direction
	wallets   []string // sorted, distinct
}

// Detect groups coordinated wallets. labels may be nil; when present each
// group reports how its members were classified.
func Detect(txs []models.Transaction, labels map[string]models.TraderLabel, p Policy) Result {
	valid, rejected := models.ValidTransactions(txs)
	res := Result{Warnings: rejected, Groups: []models.BundleGroup{}}
	if len(valid) == 0 {
		return res
	}

	minWallets := p.MinBlockWallets
	if minWallets < 2 {
		minWallets = 2
	}
	minShared := p.MinSharedWallets
	if minShared < 1 {
		minShared = 1
	}

	cands, blocks := candidates(valid, minWallets, p.IncludeSells)

	uf := newUnionFind()
	for _, c := range cands {
		merge(uf, c, minShared, p.MaxGroupBlocks)
	}

	groups := collect(uf, valid, labels)

	early := make(map[uint64]bool)
	for i := 0; i < len(blocks) && i < p.EarlyBlockWindow; i++ {
		early[blocks[i]] = true
	}
	for i := range groups {
		g := &groups[i]
		g.Suspicious = p.SuspiciousMinSize > 0 && g.Size() >= p.SuspiciousMinSize
		for _, b := range g.Blocks {
			if early[b] {
				g.Suspicious = true
			}
		}
		if g.Suspicious {
			res.SuspiciousCount++
		}
		res.BundledWallets += g.Size()
	}

	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Size() != b.Size() {
			return a.Size() > b.Size()
		}
		if a.Cohesion != b.Cohesion {
			return a.Cohesion > b.Cohesion
		}
		if a.Blocks[0] != b.Blocks[0] {
			return a.Blocks[0] < b.Blocks[0]
		}
		return a.Wallets[0] < b.Wallets[0]
	})
	res.Groups = groups

	wallets := make(map[string]struct{})
	for _, tx := range valid {
		wallets[tx.Wallet] = struct{}{}
	}
	res.TotalWallets = len(wallets)
	res.BundledPercentage = math.Round(float64(res.BundledWallets)/float64(res.TotalWallets)*100*100) / 100

	logger.Debug("Detect: blocks=%d candidates=%d groups=%d bundled=%d/%d suspicious=%d",
		len(blocks), len(cands), len(groups), res.BundledWallets, res.TotalWallets, res.SuspiciousCount)

	return res
}

// candidates partitions transactions by block and direction. It returns the
// candidates in (block, direction) order and all distinct blocks ascending.
func candidates(txs []models.Transaction, minWallets int, includeSells bool) ([]candidate, []uint64) {
	byBlock := make(map[uint64]map[models.Direction]map[string]struct{})
	for _, tx := range txs {
		dirs, ok := byBlock[tx.Block]
		if !ok {
			dirs = make(map[models.Direction]map[string]struct{})
			byBlock[tx.Block] = dirs
		}
		if dirs[tx.Direction] == nil {
			dirs[tx.Direction] = make(map[string]struct{})
		}
		dirs[tx.Direction][tx.Wallet] = struct{}{}
	}

	blocks := make([]uint64, 0, len(byBlock))
	for b := range byBlock {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })

	directions := []models.Direction{models.DirectionBuy}
	if includeSells {
		directions = append(directions, models.DirectionSell)
	}

	var out []candidate
	for _, b := range blocks {
		for _, d := range directions {
			set := byBlock[b][d]
			if len(set) < minWallets {
				continue
			}
			wallets := make([]string, 0, len(set))
			for w := range set {
				wallets = append(wallets, w)
			}
			sort.Strings(wallets)
			out = append(out, candidate{block: b, direction: d, wallets: wallets})
		}
	}
	return out, blocks
}

// merge folds one candidate into the forest. Wallets already grouped stay in
// their group unless that group qualifies for the merge; ungrouped wallets
// join the merged group, or form a new one when at least two of them remain.
func merge(uf *unionFind, c candidate, minShared, maxBlocks int) {
	var free []string
	shared := make(map[string]int)
	for _, w := range c.wallets {
		if uf.has(w) {
			shared[uf.find(w)]++
		} else {
			free = append(free, w)
		}
	}

	roots := make([]string, 0, len(shared))
	for r := range shared {
		roots = append(roots, r)
	}
	sort.Strings(roots)

	span := map[uint64]struct{}{c.block: {}}
	var accepted []string
	for _, r := range roots {
		if shared[r] < minShared {
			continue
		}
		extra := 0
		for b := range uf.blocks[r] {
			if _, ok := span[b]; !ok {
				extra++
			}
		}
		if maxBlocks > 0 && len(span)+extra > maxBlocks {
			continue
		}
		for b := range uf.blocks[r] {
			span[b] = struct{}{}
		}
		accepted = append(accepted, r)
	}

	if len(accepted) == 0 && len(free) < 2 {
		return
	}

	members := append(accepted, free...)
	for _, w := range free {
		uf.add(w)
	}
	root := members[0]
	for _, w := range members[1:] {
		root = uf.union(root, w)
	}
	uf.addBlock(root, c.block)
}

// collect turns the forest into groups with cohesion and label breakdown.
func collect(uf *unionFind, txs []models.Transaction, labels map[string]models.TraderLabel) []models.BundleGroup {
	members := make(map[string][]string)
	wallets := make([]string, 0, len(uf.parent))
	for w := range uf.parent {
		wallets = append(wallets, w)
	}
	sort.Strings(wallets)
	for _, w := range wallets {
		r := uf.find(w)
		members[r] = append(members[r], w)
	}

	total := make(map[string]int)
	inBlocks := make(map[string]int)
	for _, tx := range txs {
		if !uf.has(tx.Wallet) {
			continue
		}
		r := uf.find(tx.Wallet)
		total[r]++
		if _, ok := uf.blocks[r][tx.Block]; ok {
			inBlocks[r]++
		}
	}

	groups := make([]models.BundleGroup, 0, len(members))
	for r, ws := range members {
		blocks := make([]uint64, 0, len(uf.blocks[r]))
		for b := range uf.blocks[r] {
			blocks = append(blocks, b)
		}
		sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })

		g := models.BundleGroup{
			ID:      uuid.NewSHA1(groupNamespace, []byte(strings.Join(ws, ","))).String(),
			Wallets: ws,
			Blocks:  blocks,
			TxCount: total[r],
		}
		if total[r] > 0 {
			g.Cohesion = math.Round(float64(inBlocks[r])/float64(total[r])*10000) / 10000
		}
		if labels != nil {
			g.LabelCounts = models.LabelCounts{}
			for _, w := range ws {
				if l, ok := labels[w]; ok {
					g.LabelCounts[l]++
				}
			}
		}
		groups = append(groups, g)
	}
	return groups
}
