// Package signal standardizes payloads shared between data ingestion and strategy layers.
package signal

import "time"

// Tick models the essential pieces of market data consumed by strategies.
type Tick struct {
	Symbol string
	Price  float64
	Size   float64
	Ts     time.Time
}

// Action is the trade decision for one evaluation.
type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
	Hold Action = "hold"
)

// Signal carries the decision together with the indicator values that produced it.
type Signal struct {
	Symbol     string
	Action     Action
	Price      float64
	SMA        float64
	RSI        float64
	Overbought float64
	Oversold   float64
	Reason     string
	Ts         time.Time
}

// Actionable reports whether the signal asks for an order.
func (s Signal) Actionable() bool { return s.Action == Buy || s.Action == Sell }
