package models

import (
	"errors"
	"math"
	"time"
)

// Holder is one of the largest token accounts.
type Holder struct {
	Address    string  `json:"address"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"` // share of total supply, 0–100
}

// Validate checks that all holder fields are valid
func (h *Holder) Validate() error {
	if h.Address == "" {
		return errors.New("holder address must not be empty")
	}
	if math.IsNaN(h.Percentage) || h.Percentage < 0 || h.Percentage > 100 {
		return errors.New("holder percentage must be between 0 and 100")
	}
	if h.Amount < 0 {
		return errors.New("holder amount must not be negative")
	}
	return nil
}

// TokenInfo is the on-chain metadata of the analysed mint.
type TokenInfo struct {
	Address                string  `json:"address"`
	Name                   string  `json:"name"`
	Symbol                 string  `json:"symbol"`
	Decimals               int     `json:"decimals"`
	Supply                 float64 `json:"supply"`
	MintAuthorityRevoked   bool    `json:"mint_authority_revoked"`
	FreezeAuthorityRevoked bool    `json:"freeze_authority_revoked"`
	LiquidityPresent       bool    `json:"liquidity_present"`
	Description            string  `json:"description,omitempty"`
	Image                  string  `json:"image,omitempty"`
}

// ExternalReport is the optional third-party risk report (RugCheck).
// A nil Score means the provider returned no score, which is distinct
// from a score of zero.
type ExternalReport struct {
	Score            *int     `json:"score,omitempty"`
	LiquidityPresent bool     `json:"liquidity_present"`
	Risks            []string `json:"risks,omitempty"`
}

// Snapshot is everything fetched for one token in one run.
type Snapshot struct {
	TokenAddress string          `json:"token_address"`
	Token        TokenInfo       `json:"token"`
	Holders      []Holder        `json:"holders"`
	Transactions []Transaction   `json:"transactions"`
	External     *ExternalReport `json:"external,omitempty"`
	FetchedAt    time.Time       `json:"fetched_at"`
}

// LiquidityPresent reports whether either the metadata or the external
// report carries liquidity information.
func (s *Snapshot) LiquidityPresent() bool {
	if s.Token.LiquidityPresent {
		return true
	}
	return s.External != nil && s.External.LiquidityPresent
}

// ExternalScore returns the external risk score, or nil when absent.
func (s *Snapshot) ExternalScore() *int {
	if s.External == nil {
		return nil
	}
	return s.External.Score
}
