package models

// BundleGroup is a set of wallets believed to act under common control,
// found through same-block activity.
type BundleGroup struct {
	ID          string      `json:"id"`
	Wallets     []string    `json:"wallets"` // sorted
	Blocks      []uint64    `json:"blocks"`  // sorted, blocks that triggered grouping
	Cohesion    float64     `json:"cohesion"`
	TxCount     int         `json:"tx_count"`
	Suspicious  bool        `json:"suspicious"`
	LabelCounts LabelCounts `json:"label_counts,omitempty"`
}

// Size returns the number of wallets in the group.
func (g *BundleGroup) Size() int {
	return len(g.Wallets)
}
