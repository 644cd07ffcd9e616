// Package agent runs the indicator-driven trading agent over a set of products.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"agent3525/internal/execution"
	"agent3525/internal/paper"
	"agent3525/internal/risk"
	"agent3525/internal/signal"
	"agent3525/internal/strategy"
)

// PriceSource supplies the recent price window for a product, oldest first.
type PriceSource interface {
	Prices(symbol string) []float64
}

// Decision is the outcome for one product in one cycle.
type Decision struct {
	Symbol string
	Signal signal.Signal
	Order  *execution.Order
	Result execution.Result
	Err    error
}

type TradingAgent struct {
	name    string
	assets  []string
	size    float64
	strat   strategy.Strategy
	source  PriceSource
	exec    execution.Executor
	limits  risk.Limits
	account *paper.Account
	log     zerolog.Logger
}

// Option customizes an agent.
type Option func(*TradingAgent)

func WithLimits(l risk.Limits) Option { return func(a *TradingAgent) { a.limits = l } }

// WithAccount attaches the account used to report capital and profit.
func WithAccount(acc *paper.Account) Option { return func(a *TradingAgent) { a.account = acc } }

func New(name string, assets []string, size float64, strat strategy.Strategy, source PriceSource, exec execution.Executor, log zerolog.Logger, opts ...Option) *TradingAgent {
	a := &TradingAgent{
		name:   name,
		assets: append([]string(nil), assets...),
		size:   size,
		strat:  strat,
		source: source,
		exec:   exec,
		log:    log.With().Str("agent", name).Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *TradingAgent) Name() string { return a.name }

// Capital and Profit report the attached account, zero without one.
func (a *TradingAgent) Capital() float64 {
	if a.account == nil {
		return 0
	}
	return a.account.Capital()
}

func (a *TradingAgent) Profit() float64 {
	if a.account == nil {
		return 0
	}
	return a.account.Profit()
}

// RunCycle evaluates every asset once. Failures are logged and reported, never returned.
func (a *TradingAgent) RunCycle(ctx context.Context) []Decision {
	out := make([]Decision, 0, len(a.assets))
	for _, sym := range a.assets {
		out = append(out, a.evaluate(ctx, sym))
	}
	return out
}

func (a *TradingAgent) evaluate(ctx context.Context, sym string) (d Decision) {
	d.Symbol = sym
	defer func() {
		if r := recover(); r != nil {
			d.Err = fmt.Errorf("panic: %v", r)
			a.log.Error().Str("symbol", sym).Interface("panic", r).Msg("recovered from panic in trading cycle")
		}
	}()

	sig, err := a.strat.Evaluate(sym, a.source.Prices(sym))
	if err != nil {
		d.Err = err
		if errors.Is(err, strategy.ErrNotEnoughData) {
			a.log.Debug().Str("symbol", sym).Err(err).Msg("waiting for price history")
		} else {
			a.log.Error().Str("symbol", sym).Err(err).Msg("strategy evaluation failed")
		}
		return d
	}
	d.Signal = sig
	a.log.Info().
		Str("symbol", sym).
		Str("signal", string(sig.Action)).
		Float64("capital", a.Capital()).
		Float64("profit", a.Profit()).
		Msg(sig.Reason)
	if !sig.Actionable() {
		return d
	}

	order := execution.Order{Symbol: sym, Side: sig.Action, Qty: a.size, Price: sig.Price}
	d.Order = &order
	if err := a.limits.Check(order.Notional()); err != nil {
		d.Err = err
		a.log.Warn().Str("symbol", sym).Err(err).Msg("order blocked by risk limits")
		return d
	}
	res, err := a.exec.Submit(ctx, order)
	d.Result = res
	if err != nil {
		d.Err = err
		a.log.Warn().Str("symbol", sym).Str("mode", a.exec.Mode()).Err(err).Msg("order not executed")
	}
	return d
}

// Start runs a cycle immediately and then every interval until ctx is done.
func (a *TradingAgent) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		a.RunCycle(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Session trades for at most d and reports the final profit. Expiry of the session is not an error.
func (a *TradingAgent) Session(ctx context.Context, d, interval time.Duration) error {
	sctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	err := a.Start(sctx, interval)
	a.log.Info().
		Float64("capital", a.Capital()).
		Float64("profit", a.Profit()).
		Msgf("session complete for %s", a.name)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil
	}
	return err
}
