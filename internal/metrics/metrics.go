package metrics

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	MintCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "mint_cycles_total", Help: "Slot top-up cycles by outcome"},
		[]string{"strategy", "outcome"},
	)
	MintRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "mint_requests_total", Help: "Mint requests executed, paper or live"},
		[]string{"strategy", "mode"},
	)
	SlotBalance = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "slot_balance", Help: "Last observed slot balance"},
		[]string{"strategy", "slot"},
	)
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of market ticks ingested"},
		[]string{"symbol"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side"},
	)
)

func init() {
	prometheus.MustRegister(MintCycles, MintRequests, SlotBalance, TicksTotal, OrdersTotal)
}

// Serve binds addr and exposes /metrics in the background. An empty addr disables the listener.
// Bind failures are returned; later serve errors go to log.
func Serve(addr string, log zerolog.Logger) (*http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	if addr == "" {
		return srv, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return srv, fmt.Errorf("listen metrics %s: %w", addr, err)
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	return srv, nil
}
