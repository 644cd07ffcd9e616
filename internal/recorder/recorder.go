// Package recorder persists mint and fill records for later analysis.
package recorder

import (
	"time"
)

// Mint describes one executed (or simulated) slot top-up.
type Mint struct {
	Time      time.Time `json:"time"`
	Strategy  string    `json:"strategy"`
	Slot      uint64    `json:"slot"`
	Balance   string    `json:"balance"`
	Threshold string    `json:"threshold"`
	Amount    string    `json:"amount"`
	Mode      string    `json:"mode"`
	TxHash    string    `json:"tx_hash,omitempty"`
}

// Fill is an executed order, paper or live.
type Fill struct {
	Time    time.Time `json:"time"`
	Agent   string    `json:"agent"`
	Symbol  string    `json:"symbol"`
	Side    string    `json:"side"`
	Qty     float64   `json:"qty"`
	Price   float64   `json:"price"`
	Mode    string    `json:"mode"`
	OrderID string    `json:"order_id,omitempty"`
}

// Recorder persists historical records.
type Recorder interface {
	RecordMint(m Mint) error
	RecordFill(f Fill) error
	Close() error
}
