package exchange

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"agent3525/internal/signal"
)

type coinbaseSubscribe struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channel    string   `json:"channel"`
}

type coinbaseMessage struct {
	Channel   string          `json:"channel"`
	Timestamp string          `json:"timestamp"`
	Events    []coinbaseEvent `json:"events"`
}

type coinbaseEvent struct {
	Type    string           `json:"type"`
	Tickers []coinbaseTicker `json:"tickers"`
}

type coinbaseTicker struct {
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
	Volume24h string `json:"volume_24_h"`
}

func (f *Feed) runCoinbase(ctx context.Context, out chan<- signal.Tick) error {
	if len(f.symbols) == 0 {
		return fmt.Errorf("coinbase feed requires at least one product")
	}

	backoff := f.backoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		subscribed := false
		if err := f.consumeCoinbase(ctx, out, func() { subscribed = true }); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if subscribed {
				backoff = f.backoff
			}
			f.log.Warn().Err(err).Dur("backoff", backoff).Msg("coinbase feed disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(f.maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

// consumeCoinbase calls subscribed once the subscription is on the wire.
func (f *Feed) consumeCoinbase(ctx context.Context, out chan<- signal.Tick, subscribed func()) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// unblock ReadMessage on shutdown
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	sub, err := json.Marshal(coinbaseSubscribe{Type: "subscribe", ProductIDs: f.symbols, Channel: "ticker"})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	subscribed()
	f.log.Info().Str("provider", ProviderCoinbase).Strs("symbols", f.symbols).Msg("connected market data feed")

	conn.SetReadLimit(1 << 20)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		var msg coinbaseMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			f.log.Warn().Err(err).Msg("failed to decode coinbase message")
			continue
		}
		if msg.Channel != "ticker" {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, msg.Timestamp)
		if err != nil {
			ts = time.Now()
		}
		for _, ev := range msg.Events {
			for _, tk := range ev.Tickers {
				px, err := strconv.ParseFloat(tk.Price, 64)
				if err != nil {
					f.log.Warn().Err(err).Str("product", tk.ProductID).Msg("invalid price from coinbase")
					continue
				}
				if err := f.emit(ctx, out, signal.Tick{Symbol: tk.ProductID, Price: px, Ts: ts}); err != nil {
					return err
				}
			}
		}
	}
}
