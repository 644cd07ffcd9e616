// Package exchange hosts the Coinbase connectors and tick sources.
package exchange

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"agent3525/internal/metrics"
	"agent3525/internal/signal"
)

const (
	// ProviderStub emits synthetic random-walk ticks (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderCoinbase streams the Advanced Trade ticker channel.
	ProviderCoinbase = "coinbase"
)

const (
	defaultStubInterval = 500 * time.Millisecond
	defaultWindow       = 100
	defaultWSURL        = "wss://advanced-trade-ws.coinbase.com"
	defaultBackoff      = time.Second
	defaultMaxBackoff   = 30 * time.Second
)

// Feed streams ticks for a set of products and keeps a bounded price history per product.
type Feed struct {
	provider     string
	symbols      []string
	log          zerolog.Logger
	wsURL        string
	stubInterval time.Duration
	window       int
	seed         uint64
	backoff      time.Duration
	maxBackoff   time.Duration

	mu      sync.RWMutex
	history map[string][]float64
}

// Option configures Feed construction parameters.
type Option func(*Feed)

// WithWindow bounds the per-product price history.
func WithWindow(n int) Option {
	return func(f *Feed) {
		if n > 0 {
			f.window = n
		}
	}
}

// WithWebsocketURL overrides the Coinbase websocket endpoint.
func WithWebsocketURL(url string) Option {
	return func(f *Feed) {
		if url != "" {
			f.wsURL = url
		}
	}
}

// WithStubInterval overrides the synthetic tick cadence.
func WithStubInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.stubInterval = d
		}
	}
}

// WithReconnectBackoff sets the first and the largest wait between websocket reconnects.
func WithReconnectBackoff(initial, max time.Duration) Option {
	return func(f *Feed) {
		if initial > 0 {
			f.backoff = initial
		}
		if max >= f.backoff {
			f.maxBackoff = max
		}
	}
}

// WithSeed fixes the stub random walk.
func WithSeed(seed uint64) Option {
	return func(f *Feed) { f.seed = seed }
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider string, symbols []string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider:     strings.ToLower(provider),
		log:          log,
		wsURL:        defaultWSURL,
		stubInterval: defaultStubInterval,
		window:       defaultWindow,
		backoff:      defaultBackoff,
		maxBackoff:   defaultMaxBackoff,
		seed:         uint64(time.Now().UnixNano()),
		history:      make(map[string][]float64),
	}
	f.symbols = normalizeSymbols(symbols)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// normalizeSymbols dedupes and sorts product ids for determinism.
func normalizeSymbols(symbols []string) []string {
	unique := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		unique[sym] = struct{}{}
	}
	out := make([]string, 0, len(unique))
	for sym := range unique {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func (f *Feed) Symbols() []string {
	out := make([]string, len(f.symbols))
	copy(out, f.symbols)
	return out
}

// Prices returns a copy of the recorded history for symbol, oldest first.
func (f *Feed) Prices(symbol string) []float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	h := f.history[symbol]
	out := make([]float64, len(h))
	copy(out, h)
	return out
}

// LastPrice returns the most recent price for symbol.
func (f *Feed) LastPrice(symbol string) (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	h := f.history[symbol]
	if len(h) == 0 {
		return 0, false
	}
	return h[len(h)-1], true
}

// Observe appends a tick to the history, dropping the oldest price past the window.
func (f *Feed) Observe(tk signal.Tick) {
	if tk.Symbol == "" || tk.Price <= 0 {
		return
	}
	f.mu.Lock()
	h := append(f.history[tk.Symbol], tk.Price)
	if len(h) > f.window {
		h = append(h[:0:0], h[len(h)-f.window:]...)
	}
	f.history[tk.Symbol] = h
	f.mu.Unlock()
	metrics.TicksTotal.WithLabelValues(tk.Symbol).Inc()
}

// Run records ticks until the context is canceled, forwarding each one to out when it is non-nil.
func (f *Feed) Run(ctx context.Context, out chan<- signal.Tick) error {
	switch f.provider {
	case ProviderCoinbase:
		return f.runCoinbase(ctx, out)
	default:
		return f.runStub(ctx, out)
	}
}

func (f *Feed) emit(ctx context.Context, out chan<- signal.Tick, tk signal.Tick) error {
	f.Observe(tk)
	if out == nil {
		return nil
	}
	select {
	case out <- tk:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Feed) runStub(ctx context.Context, out chan<- signal.Tick) error {
	ticker := time.NewTicker(f.stubInterval)
	defer ticker.Stop()

	rng := rand.New(rand.NewPCG(f.seed, f.seed^0x9e3779b97f4a7c15))
	prices := make(map[string]float64, len(f.symbols))
	for _, s := range f.symbols {
		prices[s] = 100
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			for _, s := range f.symbols {
				// ±0.5% step
				prices[s] *= 1 + (rng.Float64()-0.5)*0.01
				if err := f.emit(ctx, out, signal.Tick{Symbol: s, Price: prices[s], Size: 1, Ts: ts}); err != nil {
					return err
				}
			}
		}
	}
}
