package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"agent3525/internal/chain"
	"agent3525/internal/config"
	"agent3525/internal/mint"
	"agent3525/internal/recorder"
	"agent3525/internal/wallet"
)

// SlotAgent is the wired ERC-3525 top-up loop.
type SlotAgent struct {
	Loop    *mint.Loop
	Policy  mint.Policy
	Mode    string
	Account chain.Account

	client *chain.Client
	rec    recorder.Recorder
}

// NewSlotAgent validates cfg, connects to the node, resolves the signing key and builds the loop.
// Any failure here is a startup error.
func NewSlotAgent(ctx context.Context, cfg *config.Config, log zerolog.Logger, storeOpts ...wallet.StoreOption) (*SlotAgent, error) {
	if err := cfg.ValidateMint(); err != nil {
		return nil, err
	}

	name, strat, ok := cfg.Strategy(cfg.Mint.Strategy)
	if !ok {
		log.Warn().Str("requested", cfg.Mint.Strategy).Str("using", name).Msg("unknown strategy mode, falling back to default")
	}
	policy := mint.Policy{Name: name, Slot: strat.Slot, Threshold: strat.Threshold}

	schedule, err := mint.ParseSchedule(cfg.Mint.Schedule)
	if err != nil {
		return nil, err
	}

	client, err := chain.Dial(ctx, cfg.Chain.RPCURL, log)
	if err != nil {
		return nil, err
	}
	s := &SlotAgent{Policy: policy, client: client}

	parsed, err := chain.LoadABI(cfg.Chain.ABIPath)
	if err != nil {
		s.Close()
		return nil, err
	}
	contract, err := chain.NewContract(client, cfg.Chain.ContractAddress, parsed,
		chain.WithGasLimit(cfg.Chain.GasLimit),
		chain.WithGasPriceGwei(cfg.Chain.GasPriceGwei),
	)
	if err != nil {
		s.Close()
		return nil, err
	}

	var store *wallet.Store
	if cfg.Wallet.Passphrase != "" {
		store = wallet.NewStore(cfg.Wallet.SeedFile, cfg.Wallet.Passphrase, log, storeOpts...)
	}
	key, err := wallet.Resolve(cfg.Wallet.PrivateKey, store, log)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("resolve wallet: %w", err)
	}
	s.Account = chain.NewAccount(key)

	s.rec, err = recorder.Open(cfg.Recorder.Kind, cfg.Recorder.Path)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open recorder: %w", err)
	}

	var exec mint.Executor
	if cfg.Mint.Paper {
		exec = mint.NewPaperExecutor(log, s.rec)
	} else {
		exec = mint.NewChainExecutor(chain.SlotMinter{Contract: contract, Account: s.Account}, log, s.rec)
	}
	s.Mode = exec.Mode()
	s.Loop = mint.NewLoop(policy, contract, exec, schedule, log)

	log.Info().
		Str("strategy", policy.String()).
		Str("mode", s.Mode).
		Str("account", s.Account.Address.Hex()).
		Str("contract", contract.Address().Hex()).
		Str("schedule", cfg.Mint.Schedule).
		Msg("slot agent ready")
	return s, nil
}

// Run blocks until ctx is canceled. Cancellation is a clean stop.
func (s *SlotAgent) Run(ctx context.Context) error {
	err := s.Loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *SlotAgent) Close() error {
	var err error
	if s.rec != nil {
		err = s.rec.Close()
	}
	if s.client != nil {
		s.client.Close()
	}
	return err
}

var _ io.Closer = (*SlotAgent)(nil)
