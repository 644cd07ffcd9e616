package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RPC_URL", "ERC3525_CONTRACT_ADDRESS", "PRIVATE_KEY", "WALLET_PASSPHRASE",
		"PAPER_TRADING", "STRATEGY_MODE", "THRESHOLD_SHORT", "THRESHOLD_LONG",
		"ASSETS", "TRADE_SIZE", "CB_API_KEY", "CB_API_SECRET", "MINT_SCHEDULE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "agent3525-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.LogFile != "logs/erc3525_agent.log" {
		t.Fatalf("unexpected App.LogFile: %s", cfg.App.LogFile)
	}
	if cfg.Chain.GasLimit != 250000 || cfg.Chain.GasPriceGwei != 7 {
		t.Fatalf("unexpected gas settings: %+v", cfg.Chain)
	}
	if cfg.Mint.Paper {
		t.Fatalf("expected live mode from file")
	}
	if cfg.Mint.Strategy != "alternate" {
		t.Fatalf("unexpected strategy: %s", cfg.Mint.Strategy)
	}
	if cfg.Mint.Schedule != "@every 30s" {
		t.Fatalf("unexpected schedule: %s", cfg.Mint.Schedule)
	}
	if got := cfg.Strategies["alternate"].Threshold; !got.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected alternate threshold 120, got %s", got)
	}
	if got := cfg.Strategies["reserve"]; got.Slot != 7 || !got.Threshold.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("unexpected reserve strategy: %+v", got)
	}
	if got := cfg.Strategies["default"]; got.Slot != 1 || !got.Threshold.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected built-in default strategy to survive, got %+v", got)
	}
	if len(cfg.Trader.Assets) != 1 || cfg.Trader.Assets[0] != "BTC-USD" {
		t.Fatalf("unexpected assets: %+v", cfg.Trader.Assets)
	}
	if cfg.Trader.Interval != 15*time.Second {
		t.Fatalf("unexpected interval: %s", cfg.Trader.Interval)
	}
	if cfg.Trader.Indicators.MAPeriod != 10 || cfg.Trader.Indicators.RSIPeriod != 7 {
		t.Fatalf("unexpected indicators: %+v", cfg.Trader.Indicators)
	}
	if cfg.Trader.Indicators.RSIOverbought != 70 {
		t.Fatalf("expected default overbought to survive, got %.2f", cfg.Trader.Indicators.RSIOverbought)
	}
	if cfg.Risk.MaxNotionalPerTrade != 250 {
		t.Fatalf("unexpected max notional: %.2f", cfg.Risk.MaxNotionalPerTrade)
	}
	if cfg.Recorder.Kind != "sqlite" {
		t.Fatalf("unexpected recorder kind: %s", cfg.Recorder.Kind)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.Mint.Paper || !cfg.Trader.Paper {
		t.Fatalf("expected paper mode by default")
	}
	if cfg.Mint.Schedule != "@every 10s" {
		t.Fatalf("unexpected default schedule: %s", cfg.Mint.Schedule)
	}
	if len(cfg.Trader.Assets) != 3 {
		t.Fatalf("expected three default assets, got %+v", cfg.Trader.Assets)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("RPC_URL", "http://localhost:8545")
	t.Setenv("PAPER_TRADING", "false")
	t.Setenv("STRATEGY_MODE", "alternate")
	t.Setenv("THRESHOLD_SHORT", "60")
	t.Setenv("THRESHOLD_LONG", "250")
	t.Setenv("ASSETS", "BTC-USD,SOL-USD")
	t.Setenv("TRADE_SIZE", "0.5")

	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Chain.RPCURL != "http://localhost:8545" {
		t.Fatalf("env RPC_URL not applied: %s", cfg.Chain.RPCURL)
	}
	if cfg.Mint.Paper || cfg.Trader.Paper {
		t.Fatalf("PAPER_TRADING=false not applied")
	}
	if got := cfg.Strategies[DefaultStrategy].Threshold; !got.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("THRESHOLD_SHORT not applied: %s", got)
	}
	if got := cfg.Strategies[AlternateStrategy].Threshold; !got.Equal(decimal.RequireFromString("250")) {
		t.Fatalf("THRESHOLD_LONG not applied: %s", got)
	}
	if len(cfg.Trader.Assets) != 2 || cfg.Trader.Assets[1] != "SOL-USD" {
		t.Fatalf("ASSETS not applied: %+v", cfg.Trader.Assets)
	}
	if cfg.Trader.Size != 0.5 {
		t.Fatalf("TRADE_SIZE not applied: %.2f", cfg.Trader.Size)
	}
}

func TestStrategyFallback(t *testing.T) {
	cfg := Default()

	name, s, ok := cfg.Strategy("Alternate")
	if !ok || name != AlternateStrategy || s.Slot != 2 {
		t.Fatalf("expected alternate strategy, got %s %+v %v", name, s, ok)
	}

	name, s, ok = cfg.Strategy("aggressive")
	if ok {
		t.Fatalf("expected unknown strategy to report not found")
	}
	if name != DefaultStrategy || s.Slot != 1 || !s.Threshold.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected fallback to default, got %s %+v", name, s)
	}

	names := cfg.StrategyNames()
	if len(names) != 2 || names[0] != AlternateStrategy || names[1] != DefaultStrategy {
		t.Fatalf("unexpected strategy names: %+v", names)
	}
}

func TestValidateMint(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateMint(); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing field error, got %v", err)
	}

	cfg.Chain.RPCURL = "http://localhost:8545"
	cfg.Chain.ContractAddress = "not-an-address"
	cfg.Wallet.Passphrase = "secret"
	if err := cfg.ValidateMint(); err == nil {
		t.Fatalf("expected invalid address error")
	}

	cfg.Chain.ContractAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	if err := cfg.ValidateMint(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg.Wallet.Passphrase = ""
	if err := cfg.ValidateMint(); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing key material error, got %v", err)
	}
}

func TestValidateMintRejectsFractionalThreshold(t *testing.T) {
	cfg := Default()
	cfg.Chain.RPCURL = "http://localhost:8545"
	cfg.Chain.ContractAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	cfg.Wallet.Passphrase = "secret"
	cfg.Strategies["reserve"] = SlotStrategy{Slot: 7, Threshold: decimal.RequireFromString("12.5")}

	err := cfg.ValidateMint()
	if err == nil || !strings.Contains(err.Error(), "whole number") {
		t.Fatalf("expected fractional threshold error, got %v", err)
	}

	cfg.Strategies["reserve"] = SlotStrategy{Slot: 7, Threshold: decimal.RequireFromString("12.0")}
	if err := cfg.ValidateMint(); err != nil {
		t.Fatalf("12.0 is a whole number, got %v", err)
	}
}

func TestValidateTrader(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateTrader(); err != nil {
		t.Fatalf("paper defaults should validate, got %v", err)
	}
	cfg.Trader.Paper = false
	if err := cfg.ValidateTrader(); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
	cfg.Exchange.APIKey, cfg.Exchange.APISecret = "key", "secret"
	if err := cfg.ValidateTrader(); err != nil {
		t.Fatalf("expected live config to validate, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Wallet.PrivateKey = "deadbeef"
	cfg.Strategies["reserve"] = SlotStrategy{Slot: 9, Threshold: decimal.RequireFromString("3")}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	if string(data) == "" {
		t.Fatalf("expected yaml output")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Wallet.PrivateKey != "" {
		t.Fatalf("private key must not be persisted")
	}
	if got := loaded.Strategies["reserve"]; got.Slot != 9 || !got.Threshold.Equal(decimal.RequireFromString("3")) {
		t.Fatalf("unexpected reserve strategy after round trip: %+v", got)
	}
}

func TestSaveNilConfig(t *testing.T) {
	if err := Save(filepath.Join(t.TempDir(), "c.yaml"), nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
