// Package mint keeps an ERC-3525 slot balance at or above a threshold by minting the deficit
// on a fixed cadence.
package mint

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Policy is one strategy variant: which slot to watch and the minimum balance to hold there.
type Policy struct {
	Name      string
	Slot      uint64
	Threshold decimal.Decimal
}

func (p Policy) String() string {
	return fmt.Sprintf("%s(slot=%d threshold=%s)", p.Name, p.Slot, p.Threshold)
}

// Request is the top-up computed for a single cycle. It only exists while balance < threshold.
type Request struct {
	Strategy  string
	Slot      uint64
	Balance   decimal.Decimal
	Threshold decimal.Decimal
	Amount    decimal.Decimal
}

// Deficit returns threshold - balance; zero or negative means nothing to mint.
func Deficit(threshold, balance decimal.Decimal) decimal.Decimal {
	return threshold.Sub(balance)
}

// NewRequest builds the mint request for balance, or reports false when the slot is funded.
func NewRequest(policy Policy, balance decimal.Decimal) (Request, bool) {
	deficit := Deficit(policy.Threshold, balance)
	if !deficit.IsPositive() {
		return Request{}, false
	}
	return Request{
		Strategy:  policy.Name,
		Slot:      policy.Slot,
		Balance:   balance,
		Threshold: policy.Threshold,
		Amount:    deficit,
	}, true
}

// BalanceReader is the contract-read capability.
type BalanceReader interface {
	SlotBalance(ctx context.Context, slot uint64) (decimal.Decimal, error)
}

// Minter is the contract-write capability. Implementations sign with the account they were
// built with and return the transaction hash.
type Minter interface {
	Mint(ctx context.Context, slot uint64, amount decimal.Decimal) (string, error)
}

// Receipt is what an executor reports back for a request.
type Receipt struct {
	TxHash    string
	Simulated bool
}

// Executor turns a request into an action: a logged simulation or an on-chain transaction.
type Executor interface {
	Mode() string
	Execute(ctx context.Context, req Request) (Receipt, error)
}
