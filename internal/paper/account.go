// Package paper simulates a trading account so strategies can run without touching a venue.
package paper

import (
	"errors"
	"fmt"
	"sync"

	"agent3525/internal/signal"
)

var (
	ErrInvalidOrder         = errors.New("quantity and price must be positive")
	ErrInsufficientCash     = errors.New("insufficient cash for buy")
	ErrInsufficientPosition = errors.New("insufficient position to sell")
	ErrPositionLimit        = errors.New("position limit exceeded")
)

const epsilon = 1e-9

type lot struct {
	qty     float64
	avgCost float64
}

// Account tracks virtual capital, realized profit and per-product positions.
type Account struct {
	mu          sync.Mutex
	initial     float64
	cash        float64
	profit      float64
	maxPosition float64
	lots        map[string]lot
}

// Position is a read-only view of one product holding.
type Position struct {
	Qty        float64
	AvgCost    float64
	Mark       float64
	Unrealized float64
}

// Snapshot is the account marked to the supplied prices.
type Snapshot struct {
	Capital   float64
	Profit    float64
	Equity    float64
	Positions map[string]Position
}

// NewAccount starts with initialCapital in cash. maxPosition caps the quantity per product; 0 disables the cap.
func NewAccount(initialCapital, maxPosition float64) *Account {
	return &Account{
		initial:     initialCapital,
		cash:        initialCapital,
		maxPosition: maxPosition,
		lots:        make(map[string]lot),
	}
}

func (a *Account) InitialCapital() float64 { return a.initial }

// Fill applies an executed order and returns the profit it realized.
func (a *Account) Fill(symbol string, side signal.Action, qty, price float64) (float64, error) {
	if qty <= 0 || price <= 0 {
		return 0, ErrInvalidOrder
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	held := a.lots[symbol]
	cost := qty * price

	switch side {
	case signal.Buy:
		if cost > a.cash+epsilon {
			return 0, fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientCash, cost, a.cash)
		}
		total := held.qty + qty
		if a.maxPosition > 0 && total > a.maxPosition+epsilon {
			return 0, fmt.Errorf("%w: %s would hold %.6f", ErrPositionLimit, symbol, total)
		}
		a.cash -= cost
		a.lots[symbol] = lot{qty: total, avgCost: (held.avgCost*held.qty + cost) / total}
		return 0, nil

	case signal.Sell:
		if held.qty+epsilon < qty {
			return 0, fmt.Errorf("%w: %s holds %.6f", ErrInsufficientPosition, symbol, held.qty)
		}
		realized := (price - held.avgCost) * qty
		a.profit += realized
		a.cash += cost
		if rest := held.qty - qty; rest > epsilon {
			a.lots[symbol] = lot{qty: rest, avgCost: held.avgCost}
		} else {
			delete(a.lots, symbol)
		}
		return realized, nil

	default:
		return 0, fmt.Errorf("unsupported side %q", side)
	}
}

// Capital is the cash currently available.
func (a *Account) Capital() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cash
}

// Profit is the total realized profit.
func (a *Account) Profit() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profit
}

func (a *Account) Position(symbol string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lots[symbol].qty
}

// Snapshot marks open positions to prices. Products without a price are carried at cost.
func (a *Account) Snapshot(prices map[string]float64) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		Capital:   a.cash,
		Profit:    a.profit,
		Equity:    a.cash,
		Positions: make(map[string]Position, len(a.lots)),
	}
	for sym, l := range a.lots {
		mark, ok := prices[sym]
		if !ok || mark <= 0 {
			mark = l.avgCost
		}
		snap.Positions[sym] = Position{
			Qty:        l.qty,
			AvgCost:    l.avgCost,
			Mark:       mark,
			Unrealized: (mark - l.avgCost) * l.qty,
		}
		snap.Equity += mark * l.qty
	}
	return snap
}
