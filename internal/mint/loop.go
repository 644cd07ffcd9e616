package mint

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"agent3525/internal/metrics"
)

// State is the loop's position in its Idle/Executing cycle.
type State int32

const (
	Idle State = iota
	Executing
)

func (s State) String() string {
	if s == Executing {
		return "executing"
	}
	return "idle"
}

// Outcome classifies how a cycle ended.
type Outcome string

const (
	OutcomeNoAction  Outcome = "no_action"
	OutcomeSimulated Outcome = "simulated"
	OutcomeMinted    Outcome = "minted"
	OutcomeFailed    Outcome = "failed"
)

// Schedule yields the next fire time after a completed cycle. cron.Schedule satisfies it.
type Schedule interface {
	Next(time.Time) time.Time
}

// ParseSchedule accepts "@every <duration>" descriptors and standard cron expressions.
func ParseSchedule(spec string) (Schedule, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Every is a fixed delay between the end of one cycle and the start of the next.
type Every time.Duration

func (e Every) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }

// Report summarises one cycle.
type Report struct {
	Strategy string
	Slot     uint64
	Balance  decimal.Decimal
	ReadErr  error
	Request  *Request
	Receipt  Receipt
	Outcome  Outcome
	Err      error
}

// Loop runs the read-compare-mint cycle for one policy. It is single-threaded: a cycle always
// completes before the next one is scheduled.
type Loop struct {
	policy   Policy
	reader   BalanceReader
	exec     Executor
	schedule Schedule
	log      zerolog.Logger
	state    atomic.Int32
	cycles   atomic.Uint64
}

// NewLoop wires a policy to its capabilities. The executor decides paper versus live.
func NewLoop(policy Policy, reader BalanceReader, exec Executor, schedule Schedule, log zerolog.Logger) *Loop {
	return &Loop{
		policy:   policy,
		reader:   reader,
		exec:     exec,
		schedule: schedule,
		log:      log.With().Str("strategy", policy.Name).Uint64("slot", policy.Slot).Logger(),
	}
}

// State reports whether a cycle is currently running.
func (l *Loop) State() State { return State(l.state.Load()) }

// Cycles is the number of cycles completed so far.
func (l *Loop) Cycles() uint64 { return l.cycles.Load() }

// Run executes a cycle immediately and then once per schedule tick until ctx is cancelled.
// Cycle failures are logged and never end the loop.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info().
		Str("mode", l.exec.Mode()).
		Str("threshold", l.policy.Threshold.String()).
		Msg("starting slot loop")
	for {
		l.RunCycle(ctx)

		wait := time.Until(l.schedule.Next(time.Now()))
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.log.Info().Uint64("cycles", l.Cycles()).Msg("slot loop stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunCycle performs one read and, when the slot is short, one mint.
func (l *Loop) RunCycle(ctx context.Context) (report Report) {
	report = Report{Strategy: l.policy.Name, Slot: l.policy.Slot}
	l.state.Store(int32(Executing))
	defer func() {
		if r := recover(); r != nil {
			report.Outcome = OutcomeFailed
			report.Err = fmt.Errorf("cycle panic: %v", r)
			l.log.Error().Err(report.Err).Msg("error in slot loop")
		}
		metrics.MintCycles.WithLabelValues(l.policy.Name, string(report.Outcome)).Inc()
		l.cycles.Add(1)
		l.state.Store(int32(Idle))
	}()

	balance, err := l.reader.SlotBalance(ctx, l.policy.Slot)
	if err != nil {
		l.log.Error().Err(err).Msg("error reading slot balance, assuming zero")
		report.ReadErr = err
		balance = decimal.Zero
	} else {
		l.log.Info().Str("balance", balance.String()).Msg("current slot balance")
		metrics.SlotBalance.WithLabelValues(l.policy.Name, strconv.FormatUint(l.policy.Slot, 10)).Set(balance.InexactFloat64())
	}
	report.Balance = balance

	req, short := NewRequest(l.policy, balance)
	if !short {
		l.log.Info().Str("balance", balance.String()).Msg("balance meets threshold, no action necessary")
		report.Outcome = OutcomeNoAction
		return report
	}
	report.Request = &req

	l.log.Info().
		Str("balance", balance.String()).
		Str("deficit", req.Amount.String()).
		Msg("balance below threshold, minting deficit")
	receipt, err := l.exec.Execute(ctx, req)
	if err != nil {
		l.log.Error().Err(err).Str("amount", req.Amount.String()).Msg("error sending mint transaction")
		report.Outcome = OutcomeFailed
		report.Err = err
		return report
	}
	report.Receipt = receipt
	report.Outcome = OutcomeMinted
	if receipt.Simulated {
		report.Outcome = OutcomeSimulated
	}
	return report
}
