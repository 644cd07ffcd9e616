package agent

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"agent3525/internal/execution"
	"agent3525/internal/paper"
	"agent3525/internal/recorder"
	"agent3525/internal/risk"
	"agent3525/internal/signal"
	"agent3525/internal/strategy"
)

type staticSource map[string][]float64

func (s staticSource) Prices(sym string) []float64 { return s[sym] }

type fixedStrategy struct {
	actions map[string]signal.Action
	panicOn string
}

func (f fixedStrategy) Name() string { return "fixed" }

func (f fixedStrategy) Evaluate(sym string, prices []float64) (signal.Signal, error) {
	if sym == f.panicOn {
		panic("boom")
	}
	if len(prices) == 0 {
		return signal.Signal{}, strategy.ErrNotEnoughData
	}
	return signal.Signal{Symbol: sym, Action: f.actions[sym], Price: prices[len(prices)-1], Reason: "fixed"}, nil
}

type countingExec struct {
	mu     sync.Mutex
	orders []execution.Order
	err    error
}

func (c *countingExec) Mode() string { return "test" }

func (c *countingExec) Submit(_ context.Context, o execution.Order) (execution.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = append(c.orders, o)
	return execution.Result{OrderID: "x"}, c.err
}

func (c *countingExec) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.orders)
}

func TestRunCycleSubmitsActionableSignals(t *testing.T) {
	src := staticSource{"BTC-USD": {100, 101}, "ETH-USD": {10}, "PEPE-USD": {1}}
	strat := fixedStrategy{actions: map[string]signal.Action{"BTC-USD": signal.Buy, "ETH-USD": signal.Hold, "PEPE-USD": signal.Sell}}
	exec := &countingExec{}

	a := New("Agent1-REST", []string{"BTC-USD", "ETH-USD", "PEPE-USD"}, 0.5, strat, src, exec, zerolog.Nop())
	decisions := a.RunCycle(context.Background())

	if len(decisions) != 3 {
		t.Fatalf("expected a decision per asset, got %d", len(decisions))
	}
	if exec.count() != 2 {
		t.Fatalf("expected buy and sell submitted, got %d", exec.count())
	}
	if o := exec.orders[0]; o.Symbol != "BTC-USD" || o.Side != signal.Buy || o.Qty != 0.5 || o.Price != 101 {
		t.Fatalf("unexpected order %+v", o)
	}
	if decisions[1].Order != nil {
		t.Fatalf("hold must not produce an order")
	}
}

func TestRunCycleRespectsRiskLimits(t *testing.T) {
	src := staticSource{"BTC-USD": {30000}}
	strat := fixedStrategy{actions: map[string]signal.Action{"BTC-USD": signal.Buy}}
	exec := &countingExec{}

	a := New("a", []string{"BTC-USD"}, 1, strat, src, exec, zerolog.Nop(), WithLimits(risk.Limits{MaxNotionalPerTrade: 100}))
	d := a.RunCycle(context.Background())[0]
	if !errors.Is(d.Err, risk.ErrNotionalExceeded) {
		t.Fatalf("expected risk rejection, got %v", d.Err)
	}
	if exec.count() != 0 {
		t.Fatalf("blocked order must not be submitted")
	}
}

func TestRunCycleSurvivesFailures(t *testing.T) {
	var buf bytes.Buffer
	src := staticSource{"BTC-USD": {1}, "ETH-USD": nil, "BAD": {1}}
	strat := fixedStrategy{actions: map[string]signal.Action{"BTC-USD": signal.Buy}, panicOn: "BAD"}
	exec := &countingExec{err: errors.New("venue down")}

	a := New("a", []string{"BAD", "ETH-USD", "BTC-USD"}, 1, strat, src, exec, zerolog.New(&buf))
	decisions := a.RunCycle(context.Background())

	if decisions[0].Err == nil || !strings.Contains(decisions[0].Err.Error(), "panic") {
		t.Fatalf("expected recovered panic, got %v", decisions[0].Err)
	}
	if !errors.Is(decisions[1].Err, strategy.ErrNotEnoughData) {
		t.Fatalf("expected not-enough-data, got %v", decisions[1].Err)
	}
	if decisions[2].Err == nil || exec.count() != 1 {
		t.Fatalf("expected venue error to be reported")
	}
	if !strings.Contains(buf.String(), "order not executed") {
		t.Fatalf("expected failure log, got %s", buf.String())
	}
}

func TestPaperAgentTracksProfit(t *testing.T) {
	src := staticSource{"BTC-USD": {100}}
	account := paper.NewAccount(1000, 0)
	exec := execution.NewPaperExecutor("a", account, recorder.NewLedger(2), zerolog.Nop())

	buy := New("a", []string{"BTC-USD"}, 2, fixedStrategy{actions: map[string]signal.Action{"BTC-USD": signal.Buy}}, src, exec, zerolog.Nop(), WithAccount(account))
	buy.RunCycle(context.Background())
	if buy.Capital() != 800 {
		t.Fatalf("expected capital 800 after buy, got %v", buy.Capital())
	}

	src["BTC-USD"] = []float64{110}
	sell := New("a", []string{"BTC-USD"}, 2, fixedStrategy{actions: map[string]signal.Action{"BTC-USD": signal.Sell}}, src, exec, zerolog.Nop(), WithAccount(account))
	sell.RunCycle(context.Background())
	if sell.Profit() != 20 {
		t.Fatalf("expected profit 20, got %v", sell.Profit())
	}
}

func TestSessionEndsWithoutError(t *testing.T) {
	var buf bytes.Buffer
	exec := &countingExec{}
	a := New("Agent_1", []string{"BTC-USD"}, 1, fixedStrategy{actions: map[string]signal.Action{"BTC-USD": signal.Buy}}, staticSource{"BTC-USD": {1}}, exec, zerolog.New(&buf))

	if err := a.Session(context.Background(), 30*time.Millisecond, 5*time.Millisecond); err != nil {
		t.Fatalf("expected clean session end, got %v", err)
	}
	if exec.count() < 2 {
		t.Fatalf("expected several cycles, got %d", exec.count())
	}
	if !strings.Contains(buf.String(), "session complete for Agent_1") {
		t.Fatalf("expected session summary log, got %s", buf.String())
	}
}

func TestSessionParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := New("a", nil, 1, fixedStrategy{}, staticSource{}, &countingExec{}, zerolog.Nop())
	if err := a.Session(ctx, time.Second, time.Millisecond); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := a.Start(context.Background(), 0); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}
