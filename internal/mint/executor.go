package mint

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"agent3525/internal/metrics"
	"agent3525/internal/recorder"
)

const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// PaperExecutor logs and records the would-be mint without touching the chain.
type PaperExecutor struct {
	log zerolog.Logger
	rec recorder.Recorder
}

// NewPaperExecutor returns an executor for paper mode. A nil recorder disables recording.
func NewPaperExecutor(log zerolog.Logger, rec recorder.Recorder) *PaperExecutor {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &PaperExecutor{log: log, rec: rec}
}

func (p *PaperExecutor) Mode() string { return ModePaper }

func (p *PaperExecutor) Execute(_ context.Context, req Request) (Receipt, error) {
	metrics.MintRequests.WithLabelValues(req.Strategy, ModePaper).Inc()
	p.log.Info().
		Str("strategy", req.Strategy).
		Uint64("slot", req.Slot).
		Str("amount", req.Amount.String()).
		Msgf("(paper trade) simulate mint %s tokens in slot %d", req.Amount, req.Slot)
	if err := p.rec.RecordMint(toRecord(req, ModePaper, "")); err != nil {
		p.log.Warn().Err(err).Msg("record simulated mint")
	}
	return Receipt{Simulated: true}, nil
}

// ChainExecutor submits mint transactions through the contract-write capability.
type ChainExecutor struct {
	minter Minter
	log    zerolog.Logger
	rec    recorder.Recorder
}

// NewChainExecutor returns an executor for live mode. A nil recorder disables recording.
func NewChainExecutor(minter Minter, log zerolog.Logger, rec recorder.Recorder) *ChainExecutor {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &ChainExecutor{minter: minter, log: log, rec: rec}
}

func (c *ChainExecutor) Mode() string { return ModeLive }

func (c *ChainExecutor) Execute(ctx context.Context, req Request) (Receipt, error) {
	txHash, err := c.minter.Mint(ctx, req.Slot, req.Amount)
	if err != nil {
		return Receipt{}, fmt.Errorf("send mint transaction: %w", err)
	}
	metrics.MintRequests.WithLabelValues(req.Strategy, ModeLive).Inc()
	c.log.Info().
		Str("strategy", req.Strategy).
		Uint64("slot", req.Slot).
		Str("amount", req.Amount.String()).
		Str("tx", txHash).
		Msg("mint transaction sent")
	if err := c.rec.RecordMint(toRecord(req, ModeLive, txHash)); err != nil {
		c.log.Warn().Err(err).Str("tx", txHash).Msg("record mint")
	}
	return Receipt{TxHash: txHash}, nil
}

func toRecord(req Request, mode, txHash string) recorder.Mint {
	return recorder.Mint{
		Time:      time.Now().UTC(),
		Strategy:  req.Strategy,
		Slot:      req.Slot,
		Balance:   req.Balance.String(),
		Threshold: req.Threshold.String(),
		Amount:    req.Amount.String(),
		Mode:      mode,
		TxHash:    txHash,
	}
}
