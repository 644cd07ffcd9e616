package strategy

import (
	"sort"
	"strings"

	sig "agent3525/internal/signal"
)

// Strategy turns a price window into a trading signal.
type Strategy interface {
	Evaluate(symbol string, prices []float64) (sig.Signal, error)
	Name() string
}

// Preset is a named parameter set selectable from config.
type Preset struct {
	Description string
	Params      map[string]int
}

// Presets are the built-in strategy setups.
var Presets = map[string]Preset{
	"trend": {
		Description: "SMA 50 & 200, RSI",
		Params:      map[string]int{"ma_short": 50, "ma_long": 200, "rsi_period": 14},
	},
	"volatility": {
		Description: "Bollinger Bands & MACD",
		Params:      map[string]int{"bbands_length": 20, "macd_fast": 8, "macd_slow": 21},
	},
	"momentum": {
		Description: "EMA crossovers, Volume SMA",
		Params:      map[string]int{"ema_short": 20, "ema_long": 50, "volume_sma": 20},
	},
	"hybrid": {
		Description: "Combination of trend and momentum",
		Params:      map[string]int{"sma_short": 50, "sma_long": 200, "ema": 20, "rsi": 14},
	},
}

// PresetNames returns the preset keys in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply overlays the preset's averaging and RSI periods onto base.
// A period already set to something other than its default is kept.
func (p Preset) Apply(base Params) Params {
	out := base
	defaults := DefaultParams()
	if out.MAPeriod <= 0 || out.MAPeriod == defaults.MAPeriod {
		if v, ok := p.param("ma_short", "sma_short", "ema_short", "bbands_length"); ok {
			out.MAPeriod = v
		}
	}
	if out.RSIPeriod <= 0 || out.RSIPeriod == defaults.RSIPeriod {
		if v, ok := p.param("rsi_period", "rsi"); ok {
			out.RSIPeriod = v
		}
	}
	return out
}

func (p Preset) param(keys ...string) (int, bool) {
	for _, key := range keys {
		if v, ok := p.Params[key]; ok && v > 0 {
			return v, true
		}
	}
	return 0, false
}

// Build returns the indicator strategy tuned by the named preset.
// Unknown or empty names use base unchanged.
func Build(preset string, base Params) Strategy {
	name := strings.ToLower(strings.TrimSpace(preset))
	if p, ok := Presets[name]; ok {
		return NewIndicator(name, p.Apply(base))
	}
	return NewIndicator("indicator", base)
}
