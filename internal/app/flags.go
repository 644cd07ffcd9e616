// Package app wires configuration, chain access and agents into runnable processes.
package app

import (
	"flag"
	"time"

	"agent3525/internal/config"
)

const defaultConfigPath = "config.yaml"

// MintFlags are the slot agent's command-line overrides.
type MintFlags struct {
	ConfigPath string
	Strategy   string
	Paper      bool
	paperSet   bool
}

// ParseMintFlags parses flags into MintFlags.
func ParseMintFlags(fs *flag.FlagSet, args []string) (MintFlags, error) {
	var f MintFlags
	fs.StringVar(&f.ConfigPath, "config", defaultConfigPath, "path to the YAML config (empty for defaults and env only)")
	fs.StringVar(&f.Strategy, "strategy", "", "slot strategy to run (default, alternate, or a configured name)")
	fs.BoolVar(&f.Paper, "paper", false, "simulate mints instead of sending transactions")
	if err := fs.Parse(args); err != nil {
		return MintFlags{}, err
	}
	f.paperSet = flagSet(fs, "paper")
	return f, nil
}

// Apply overrides cfg with the flags that were given explicitly.
func (f MintFlags) Apply(cfg *config.Config) {
	if f.Strategy != "" {
		cfg.Mint.Strategy = f.Strategy
	}
	if f.paperSet {
		cfg.Mint.Paper = f.Paper
	}
}

// TraderFlags are the trading agent's command-line overrides.
type TraderFlags struct {
	ConfigPath string
	Session    time.Duration
	Paper      bool
	paperSet   bool
}

func ParseTraderFlags(fs *flag.FlagSet, args []string) (TraderFlags, error) {
	var f TraderFlags
	fs.StringVar(&f.ConfigPath, "config", defaultConfigPath, "path to the YAML config (empty for defaults and env only)")
	fs.DurationVar(&f.Session, "session", 0, "stop after this long (0 runs until interrupted)")
	fs.BoolVar(&f.Paper, "paper", false, "simulate orders against the paper account")
	if err := fs.Parse(args); err != nil {
		return TraderFlags{}, err
	}
	f.paperSet = flagSet(fs, "paper")
	return f, nil
}

func (f TraderFlags) Apply(cfg *config.Config) {
	if f.paperSet {
		cfg.Trader.Paper = f.Paper
	}
}

func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}
