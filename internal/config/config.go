// Package config exposes strongly typed application configuration structs loaded from YAML,
// with .env and environment variable overrides applied on top.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrMissingField reports a required setting that is empty after all sources were applied.
var ErrMissingField = errors.New("missing required setting")

const (
	// DefaultStrategy is the slot policy used when no strategy is selected.
	DefaultStrategy = "default"
	// AlternateStrategy is the second built-in slot policy.
	AlternateStrategy = "alternate"
)

// App captures process-wide runtime settings such as name, metrics, and logging.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFile     string `yaml:"log_file" env:"LOG_FILE"`
}

// Chain describes the EVM endpoint and the ERC-3525 contract the slot agent talks to.
type Chain struct {
	RPCURL          string `yaml:"rpc_url" env:"RPC_URL"`
	ContractAddress string `yaml:"contract_address" env:"ERC3525_CONTRACT_ADDRESS"`
	ABIPath         string `yaml:"abi_path" env:"ERC3525_ABI_PATH"`
	GasLimit        uint64 `yaml:"gas_limit" env:"GAS_LIMIT"`
	GasPriceGwei    int64  `yaml:"gas_price_gwei" env:"GAS_PRICE_GWEI"`
}

// Wallet stores where signing material comes from. Secrets are env-only and never saved.
type Wallet struct {
	PrivateKey string `yaml:"-" env:"PRIVATE_KEY"`
	Passphrase string `yaml:"-" env:"WALLET_PASSPHRASE"`
	SeedFile   string `yaml:"seed_file" env:"WALLET_SEED_FILE"`
}

// Mint configures the slot top-up loop.
type Mint struct {
	Paper          bool            `yaml:"paper" env:"PAPER_TRADING"`
	Strategy       string          `yaml:"strategy" env:"STRATEGY_MODE"`
	Schedule       string          `yaml:"schedule" env:"MINT_SCHEDULE"`
	ThresholdShort decimal.Decimal `yaml:"threshold_short,omitempty" env:"THRESHOLD_SHORT"`
	ThresholdLong  decimal.Decimal `yaml:"threshold_long,omitempty" env:"THRESHOLD_LONG"`
}

// SlotStrategy binds a strategy name to the slot it keeps topped up and the minimum balance.
type SlotStrategy struct {
	Slot      uint64          `yaml:"slot"`
	Threshold decimal.Decimal `yaml:"threshold"`
}

// Exchange describes the centralized exchange connectivity parameters.
type Exchange struct {
	Name       string `yaml:"name"`
	BaseURL    string `yaml:"base_url" env:"CB_API_URL"`
	WSURL      string `yaml:"ws_url" env:"CB_WS_URL"`
	Feed       string `yaml:"feed" env:"FEED_PROVIDER"`
	APIKey     string `yaml:"-" env:"CB_API_KEY"`
	APISecret  string `yaml:"-" env:"CB_API_SECRET"`
	Passphrase string `yaml:"-" env:"CB_API_PASSPHRASE"`
}

// Indicators groups the tunable knobs of the indicator strategy.
type Indicators struct {
	MAPeriod      int     `yaml:"ma_period" env:"MA_PERIOD"`
	RSIPeriod     int     `yaml:"rsi_period" env:"RSI_PERIOD"`
	RSIOverbought float64 `yaml:"rsi_overbought" env:"RSI_OVERBOUGHT"`
	RSIOversold   float64 `yaml:"rsi_oversold" env:"RSI_OVERSOLD"`
}

// Trader configures the REST trading agent.
type Trader struct {
	Name       string        `yaml:"name"`
	Paper      bool          `yaml:"paper" env:"PAPER_TRADING"`
	Preset     string        `yaml:"preset" env:"STRATEGY_PRESET"`
	Assets     []string      `yaml:"assets" env:"ASSETS" envSeparator:","`
	Size       float64       `yaml:"size" env:"TRADE_SIZE"`
	Interval   time.Duration `yaml:"interval" env:"TRADE_INTERVAL"`
	Window     int           `yaml:"window"`
	Indicators Indicators    `yaml:"indicators"`
}

// Risk encodes guard-rails for how much size the executor may take on.
type Risk struct {
	MaxNotionalPerTrade float64 `yaml:"max_notional_per_trade"`
}

// Paper captures paper-trading account settings.
type Paper struct {
	StartingCash         float64 `yaml:"starting_cash"`
	MaxPositionPerSymbol float64 `yaml:"max_position_per_symbol"`
}

// Recorder selects where mint and order records are persisted.
type Recorder struct {
	Kind string `yaml:"kind" env:"RECORDER_KIND"` // sqlite|jsonl|none
	Path string `yaml:"path" env:"RECORDER_PATH"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App        App                     `yaml:"app"`
	Chain      Chain                   `yaml:"chain"`
	Wallet     Wallet                  `yaml:"wallet"`
	Mint       Mint                    `yaml:"mint"`
	Strategies map[string]SlotStrategy `yaml:"strategies"`
	Exchange   Exchange                `yaml:"exchange"`
	Trader     Trader                  `yaml:"trader"`
	Risk       Risk                    `yaml:"risk"`
	Paper      Paper                   `yaml:"paper"`
	Recorder   Recorder                `yaml:"recorder"`
}

// Default returns the configuration used when no file or environment overrides are present.
func Default() *Config {
	return &Config{
		App: App{
			Name:        "agent3525",
			Env:         "dev",
			MetricsAddr: ":9102",
			LogLevel:    "info",
		},
		Chain: Chain{
			GasLimit:     300000,
			GasPriceGwei: 5,
		},
		Wallet: Wallet{SeedFile: "wallet_seed.json"},
		Mint: Mint{
			Paper:    true,
			Strategy: DefaultStrategy,
			Schedule: "@every 10s",
		},
		Strategies: map[string]SlotStrategy{
			DefaultStrategy:   {Slot: 1, Threshold: decimal.NewFromInt(50)},
			AlternateStrategy: {Slot: 2, Threshold: decimal.NewFromInt(100)},
		},
		Exchange: Exchange{
			Name:    "coinbase",
			BaseURL: "https://api.coinbase.com",
			WSURL:   "wss://advanced-trade-ws.coinbase.com",
			Feed:    "stub",
		},
		Trader: Trader{
			Name:     "Agent1-REST",
			Paper:    true,
			Preset:   "trend",
			Assets:   []string{"BTC-USD", "ETH-USD", "PEPE-USD"},
			Size:     0.01,
			Interval: 5 * time.Second,
			Window:   100,
			Indicators: Indicators{
				MAPeriod:      20,
				RSIPeriod:     14,
				RSIOverbought: 70,
				RSIOversold:   30,
			},
		},
		Paper: Paper{StartingCash: 1000},
		Recorder: Recorder{
			Kind: "jsonl",
			Path: "data/records.jsonl",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when path is empty),
// a best-effort .env file and the process environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}

	_ = godotenv.Load() // best-effort
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyThresholdOverrides()
	return cfg, nil
}

// Save persists a Config struct to disk as YAML. Env-only secrets are not written.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// THRESHOLD_SHORT and THRESHOLD_LONG retune the two built-in strategies.
func (c *Config) applyThresholdOverrides() {
	if c.Strategies == nil {
		c.Strategies = make(map[string]SlotStrategy)
	}
	if !c.Mint.ThresholdShort.IsZero() {
		s := c.Strategies[DefaultStrategy]
		s.Threshold = c.Mint.ThresholdShort
		c.Strategies[DefaultStrategy] = s
	}
	if !c.Mint.ThresholdLong.IsZero() {
		s := c.Strategies[AlternateStrategy]
		s.Threshold = c.Mint.ThresholdLong
		c.Strategies[AlternateStrategy] = s
	}
}

// Strategy resolves a strategy by name (case-insensitive). Unknown names resolve to the
// default strategy; ok reports whether the requested name was found.
func (c *Config) Strategy(name string) (resolved string, strategy SlotStrategy, ok bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if s, found := c.Strategies[key]; found {
		return key, s, true
	}
	return DefaultStrategy, c.Strategies[DefaultStrategy], false
}

// StrategyNames lists the configured strategies in sorted order.
func (c *Config) StrategyNames() []string {
	names := make([]string, 0, len(c.Strategies))
	for name := range c.Strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateMint checks everything the slot agent needs before it may enter its loop.
func (c *Config) ValidateMint() error {
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("%w: chain.rpc_url (RPC_URL)", ErrMissingField)
	}
	if c.Chain.ContractAddress == "" {
		return fmt.Errorf("%w: chain.contract_address (ERC3525_CONTRACT_ADDRESS)", ErrMissingField)
	}
	if !common.IsHexAddress(c.Chain.ContractAddress) {
		return fmt.Errorf("invalid contract address %q", c.Chain.ContractAddress)
	}
	if c.Wallet.PrivateKey == "" && c.Wallet.Passphrase == "" {
		return fmt.Errorf("%w: PRIVATE_KEY or WALLET_PASSPHRASE", ErrMissingField)
	}
	if c.Mint.Schedule == "" {
		return fmt.Errorf("%w: mint.schedule", ErrMissingField)
	}
	if _, ok := c.Strategies[DefaultStrategy]; !ok {
		return fmt.Errorf("%w: strategies.%s", ErrMissingField, DefaultStrategy)
	}
	for name, s := range c.Strategies {
		if s.Threshold.IsNegative() {
			return fmt.Errorf("strategy %s: threshold must not be negative", name)
		}
		if !s.Threshold.IsInteger() {
			return fmt.Errorf("strategy %s: threshold %s must be a whole number of token units", name, s.Threshold)
		}
	}
	return nil
}

// ValidateTrader checks the REST agent settings; exchange credentials are only required live.
func (c *Config) ValidateTrader() error {
	if len(c.Trader.Assets) == 0 {
		return fmt.Errorf("%w: trader.assets (ASSETS)", ErrMissingField)
	}
	if c.Trader.Size <= 0 {
		return fmt.Errorf("trader.size must be positive")
	}
	if c.Trader.Interval <= 0 {
		return fmt.Errorf("trader.interval must be positive")
	}
	if c.Trader.Paper {
		return nil
	}
	if c.Exchange.APIKey == "" || c.Exchange.APISecret == "" {
		return fmt.Errorf("%w: CB_API_KEY and CB_API_SECRET", ErrMissingField)
	}
	return nil
}
