// Package risk holds pre-trade guard-rails.
package risk

import (
	"errors"
	"fmt"
)

var ErrNotionalExceeded = errors.New("order notional exceeds per-trade limit")

// Limits bounds each order. A zero limit is disabled.
type Limits struct {
	MaxNotionalPerTrade float64
}

func (l Limits) Allow(notional float64) bool {
	return l.MaxNotionalPerTrade <= 0 || notional <= l.MaxNotionalPerTrade
}

// Check is Allow with a descriptive error.
func (l Limits) Check(notional float64) error {
	if l.Allow(notional) {
		return nil
	}
	return fmt.Errorf("%w: %.2f > %.2f", ErrNotionalExceeded, notional, l.MaxNotionalPerTrade)
}
