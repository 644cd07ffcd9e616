package strategy

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cinar/indicator"
	"github.com/samber/lo"

	"agent3525/internal/signal"
)

// ErrNotEnoughData is returned when the window is shorter than the indicator periods need.
var ErrNotEnoughData = errors.New("not enough price data")

// Params are the indicator knobs.
type Params struct {
	MAPeriod      int
	RSIPeriod     int
	RSIOverbought float64
	RSIOversold   float64
	// VolatilityCutoff is the price standard deviation above which the RSI band widens.
	VolatilityCutoff float64
}

// DefaultParams mirrors the stock agent configuration.
func DefaultParams() Params {
	return Params{
		MAPeriod:         20,
		RSIPeriod:        14,
		RSIOverbought:    70,
		RSIOversold:      30,
		VolatilityCutoff: 5,
	}
}

// Indicator trades on price versus SMA, gated by RSI.
type Indicator struct {
	name   string
	params Params
}

func NewIndicator(name string, params Params) *Indicator {
	def := DefaultParams()
	if params.MAPeriod <= 0 {
		params.MAPeriod = def.MAPeriod
	}
	if params.RSIPeriod <= 0 {
		params.RSIPeriod = def.RSIPeriod
	}
	if params.VolatilityCutoff <= 0 {
		params.VolatilityCutoff = def.VolatilityCutoff
	}
	return &Indicator{name: name, params: params}
}

func (s *Indicator) Name() string   { return s.name }
func (s *Indicator) Params() Params { return s.params }

func (s *Indicator) Evaluate(symbol string, prices []float64) (signal.Signal, error) {
	return Evaluate(symbol, prices, s.params)
}

const volatilityWidening = 5

// Evaluate computes SMA and RSI over prices and decides buy, sell or hold.
// When the window's standard deviation exceeds the cutoff the RSI band widens by 5 on each side.
func Evaluate(symbol string, prices []float64, p Params) (signal.Signal, error) {
	need := max(p.MAPeriod, p.RSIPeriod+1)
	if need < 2 || len(prices) < need {
		return signal.Signal{}, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughData, len(prices), need)
	}

	overbought, oversold := p.RSIOverbought, p.RSIOversold
	if overbought <= 0 {
		overbought = 70
	}
	if oversold <= 0 {
		oversold = 30
	}
	cutoff := p.VolatilityCutoff
	if cutoff <= 0 {
		cutoff = DefaultParams().VolatilityCutoff
	}
	if StdDev(prices) > cutoff {
		overbought += volatilityWidening
		oversold -= volatilityWidening
	}

	sma := lo.LastOrEmpty(indicator.Sma(p.MAPeriod, prices))
	_, rsiSeries := indicator.RsiPeriod(p.RSIPeriod, prices)
	rsi := lo.LastOrEmpty(rsiSeries)
	last := prices[len(prices)-1]

	out := signal.Signal{
		Symbol:     symbol,
		Action:     signal.Hold,
		Price:      last,
		SMA:        sma,
		RSI:        rsi,
		Overbought: overbought,
		Oversold:   oversold,
		Ts:         time.Now(),
	}
	switch {
	case math.IsNaN(rsi):
		out.Reason = "rsi undefined on flat window"
	case last > sma && rsi < overbought:
		out.Action = signal.Buy
		out.Reason = fmt.Sprintf("price %.4f above sma %.4f, rsi %.1f < %.0f", last, sma, rsi, overbought)
	case last < sma && rsi > oversold:
		out.Action = signal.Sell
		out.Reason = fmt.Sprintf("price %.4f below sma %.4f, rsi %.1f > %.0f", last, sma, rsi, oversold)
	default:
		out.Reason = "no edge"
	}
	return out, nil
}

// StdDev is the sample standard deviation.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := lo.Sum(values) / float64(len(values))
	ss := lo.SumBy(values, func(v float64) float64 { return (v - mean) * (v - mean) })
	return math.Sqrt(ss / float64(len(values)-1))
}
