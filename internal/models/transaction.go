package models

import (
	"errors"
	"math"
	"time"
)

// Direction is the side of a swap from the wallet's point of view.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// Transaction is a single swap of the analysed token made by Wallet.
// Transactions are read-only input to every stage of the pipeline.
type Transaction struct {
	Signature      string    `json:"signature,omitempty"`
	Wallet         string    `json:"wallet"`          // fee payer
	Block          uint64    `json:"block"`           // slot on Solana
	Timestamp      time.Time `json:"timestamp"`
	Direction      Direction `json:"direction"`
	Amount         float64   `json:"amount"`          // UI amount of the analysed token
	Counterparties []string  `json:"counterparties,omitempty"`
}

// Validate checks that all required transaction fields are present
func (t *Transaction) Validate() error {
	if t.Wallet == "" {
		return errors.New("wallet must not be empty")
	}
	if t.Block == 0 {
		return errors.New("block must not be zero")
	}
	if t.Timestamp.IsZero() {
		return errors.New("timestamp must be set")
	}
	if !t.Direction.Valid() {
		return errors.New("direction must be 'buy' or 'sell'")
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) || t.Amount < 0 {
		return errors.New("amount must be a non-negative number")
	}
	return nil
}

// Counterparty returns the primary counterparty, or "" when none is known.
func (t *Transaction) Counterparty() string {
	if len(t.Counterparties) == 0 {
		return ""
	}
	return t.Counterparties[0]
}

// ValidTransactions filters out malformed transactions. Each rejected record
// is returned as a *RecordError wrapping ErrMalformedRecord.
func ValidTransactions(txs []Transaction) ([]Transaction, []error) {
	valid := make([]Transaction, 0, len(txs))
	var rejected []error
	for i := range txs {
		if err := txs[i].Validate(); err != nil {
			rejected = append(rejected, &RecordError{Kind: "transaction", Index: i, Reason: err.Error()})
			continue
		}
		valid = append(valid, txs[i])
	}
	return valid, rejected
}
