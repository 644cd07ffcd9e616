package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"agent3525/internal/agent"
	"agent3525/internal/config"
	"agent3525/internal/exchange"
	"agent3525/internal/execution"
	"agent3525/internal/paper"
	"agent3525/internal/recorder"
	"agent3525/internal/risk"
	"agent3525/internal/strategy"
)

// Trader is the wired feed plus trading agent.
type Trader struct {
	Feed     *exchange.Feed
	Agent    *agent.TradingAgent
	Account  *paper.Account
	Mode     string
	interval time.Duration
	rec      recorder.Recorder
	log      zerolog.Logger
}

// NewTrader builds the trading agent from cfg.
func NewTrader(cfg *config.Config, log zerolog.Logger, feedOpts ...exchange.Option) (*Trader, error) {
	if err := cfg.ValidateTrader(); err != nil {
		return nil, err
	}
	rec, err := recorder.Open(cfg.Recorder.Kind, cfg.Recorder.Path)
	if err != nil {
		return nil, fmt.Errorf("open recorder: %w", err)
	}

	opts := append([]exchange.Option{
		exchange.WithWindow(cfg.Trader.Window),
		exchange.WithWebsocketURL(cfg.Exchange.WSURL),
	}, feedOpts...)
	feed := exchange.NewFeed(cfg.Exchange.Feed, cfg.Trader.Assets, log, opts...)

	ind := cfg.Trader.Indicators
	strat := strategy.Build(cfg.Trader.Preset, strategy.Params{
		MAPeriod:      ind.MAPeriod,
		RSIPeriod:     ind.RSIPeriod,
		RSIOverbought: ind.RSIOverbought,
		RSIOversold:   ind.RSIOversold,
	})

	t := &Trader{Feed: feed, interval: cfg.Trader.Interval, rec: rec, log: log}
	var exec execution.Executor
	if cfg.Trader.Paper {
		t.Account = paper.NewAccount(cfg.Paper.StartingCash, cfg.Paper.MaxPositionPerSymbol)
		exec = execution.NewPaperExecutor(cfg.Trader.Name, t.Account, rec, log)
	} else {
		client := exchange.NewCoinbaseClient(cfg.Exchange.BaseURL, exchange.Credentials{
			Key:        cfg.Exchange.APIKey,
			Secret:     cfg.Exchange.APISecret,
			Passphrase: cfg.Exchange.Passphrase,
		}, nil)
		exec = execution.NewLiveExecutor(cfg.Trader.Name, client, rec, log)
	}
	t.Mode = exec.Mode()

	agentOpts := []agent.Option{agent.WithLimits(risk.Limits{MaxNotionalPerTrade: cfg.Risk.MaxNotionalPerTrade})}
	if t.Account != nil {
		agentOpts = append(agentOpts, agent.WithAccount(t.Account))
	}
	t.Agent = agent.New(cfg.Trader.Name, feed.Symbols(), cfg.Trader.Size, strat, feed, exec, log, agentOpts...)

	log.Info().
		Str("agent", cfg.Trader.Name).
		Str("mode", t.Mode).
		Str("strategy", strat.Name()).
		Strs("assets", feed.Symbols()).
		Dur("interval", t.interval).
		Msg("trading agent ready")
	return t, nil
}

// Run streams market data and trades until ctx is canceled or the session ends.
// A session of zero runs until cancellation.
func (t *Trader) Run(ctx context.Context, session time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(t.Feed.Run(gctx, nil))
	})
	g.Go(func() error {
		defer cancel()
		if session > 0 {
			return ignoreCanceled(t.Agent.Session(gctx, session, t.interval))
		}
		return ignoreCanceled(t.Agent.Start(gctx, t.interval))
	})
	err := g.Wait()
	if snap, ok := t.Summary(); ok {
		t.log.Info().
			Float64("capital", snap.Capital).
			Float64("profit", snap.Profit).
			Float64("equity", snap.Equity).
			Int("positions", len(snap.Positions)).
			Msg("paper account summary")
	}
	return err
}

// Summary marks the paper account to the feed's last prices. It reports false in live mode.
func (t *Trader) Summary() (paper.Snapshot, bool) {
	if t.Account == nil {
		return paper.Snapshot{}, false
	}
	prices := make(map[string]float64, len(t.Feed.Symbols()))
	for _, sym := range t.Feed.Symbols() {
		if p, ok := t.Feed.LastPrice(sym); ok {
			prices[sym] = p
		}
	}
	return t.Account.Snapshot(prices), true
}

func (t *Trader) Close() error {
	if t.rec == nil {
		return nil
	}
	return t.rec.Close()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
