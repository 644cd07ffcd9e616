// Package execution routes trading decisions to the paper account or the live venue.
package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"agent3525/internal/exchange"
	"agent3525/internal/metrics"
	"agent3525/internal/paper"
	"agent3525/internal/recorder"
	"agent3525/internal/signal"
)

const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// Order is a placement request. A zero Price means market.
type Order struct {
	Symbol string
	Side   signal.Action
	Qty    float64
	Price  float64
}

func (o Order) Notional() float64 { return o.Qty * o.Price }

// Result describes what happened to an order.
type Result struct {
	OrderID   string
	Realized  float64
	Simulated bool
}

// Executor submits orders in one mode.
type Executor interface {
	Mode() string
	Submit(ctx context.Context, order Order) (Result, error)
}

// OrderPlacer is the venue call the live executor needs.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.OrderResponse, error)
}

type PaperExecutor struct {
	agent   string
	account *paper.Account
	rec     recorder.Recorder
	log     zerolog.Logger
}

func NewPaperExecutor(agent string, account *paper.Account, rec recorder.Recorder, log zerolog.Logger) *PaperExecutor {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &PaperExecutor{agent: agent, account: account, rec: rec, log: log}
}

func (e *PaperExecutor) Mode() string { return ModePaper }

func (e *PaperExecutor) Submit(_ context.Context, order Order) (Result, error) {
	e.log.Info().Msgf("[%s PAPER] %s %s %s @ %.4f", e.agent, order.Side, formatQty(order.Qty), order.Symbol, order.Price)
	var res Result
	res.Simulated = true
	if e.account != nil {
		realized, err := e.account.Fill(order.Symbol, order.Side, order.Qty, order.Price)
		if err != nil {
			return res, err
		}
		res.Realized = realized
	}
	metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side)).Inc()
	record(e.rec, e.log, e.agent, ModePaper, order, "")
	return res, nil
}

type LiveExecutor struct {
	agent string
	venue OrderPlacer
	rec   recorder.Recorder
	log   zerolog.Logger
}

func NewLiveExecutor(agent string, venue OrderPlacer, rec recorder.Recorder, log zerolog.Logger) *LiveExecutor {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &LiveExecutor{agent: agent, venue: venue, rec: rec, log: log}
}

func (e *LiveExecutor) Mode() string { return ModeLive }

func (e *LiveExecutor) Submit(ctx context.Context, order Order) (Result, error) {
	req := exchange.OrderRequest{
		Side:      string(order.Side),
		ProductID: order.Symbol,
		Size:      formatQty(order.Qty),
	}
	if order.Price > 0 {
		req.Price = decimal.NewFromFloat(order.Price).String()
	}
	resp, err := e.venue.PlaceOrder(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("place order: %w", err)
	}
	if !resp.Success {
		return Result{}, fmt.Errorf("order failed: %s", resp.Reason())
	}
	metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side)).Inc()
	e.log.Info().
		Str("agent", e.agent).
		Str("order_id", resp.ID()).
		Str("client_order_id", resp.ClientOrderID).
		Str("symbol", order.Symbol).
		Str("side", string(order.Side)).
		Msg("live order placed")
	record(e.rec, e.log, e.agent, ModeLive, order, resp.ID())
	return Result{OrderID: resp.ID()}, nil
}

func formatQty(q float64) string { return decimal.NewFromFloat(q).String() }

func record(rec recorder.Recorder, log zerolog.Logger, agent, mode string, order Order, id string) {
	err := rec.RecordFill(recorder.Fill{
		Time:    time.Now().UTC(),
		Agent:   agent,
		Symbol:  order.Symbol,
		Side:    string(order.Side),
		Qty:     order.Qty,
		Price:   order.Price,
		Mode:    mode,
		OrderID: id,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to record fill")
	}
}
