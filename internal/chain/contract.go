package chain

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/shopspring/decimal"
)

//go:embed erc3525_abi.json
var erc3525ABI []byte

const (
	methodSlotBalance = "slotBalance"
	methodMint        = "_mint"
)

// ErrZeroAmount is returned for a mint amount that is not positive.
var ErrZeroAmount = errors.New("mint amount must be positive")

// LoadABI parses the ABI file at path, or the bundled ERC-3525 ABI when path is empty.
func LoadABI(path string) (abi.ABI, error) {
	data := erc3525ABI
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return abi.ABI{}, fmt.Errorf("read contract abi: %w", err)
		}
		data = raw
	}
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse contract abi: %w", err)
	}
	for _, name := range []string{methodSlotBalance, methodMint} {
		if _, ok := parsed.Methods[name]; !ok {
			return abi.ABI{}, fmt.Errorf("contract abi has no %s method", name)
		}
	}
	return parsed, nil
}

// Contract is an ERC-3525 binding exposing the slot read and mint write capabilities.
type Contract struct {
	address  common.Address
	bound    *bind.BoundContract
	chainID  *big.Int
	gasLimit uint64
	gasPrice *big.Int
}

// ContractOption tunes transaction parameters.
type ContractOption func(*Contract)

// WithGasLimit fixes the gas limit; zero lets the node estimate it.
func WithGasLimit(limit uint64) ContractOption {
	return func(c *Contract) { c.gasLimit = limit }
}

// WithGasPriceGwei fixes a legacy gas price; zero or less uses dynamic fees.
func WithGasPriceGwei(gwei int64) ContractOption {
	return func(c *Contract) {
		if gwei > 0 {
			c.gasPrice = new(big.Int).Mul(big.NewInt(gwei), big.NewInt(params.GWei))
		} else {
			c.gasPrice = nil
		}
	}
}

// NewContract binds address on the given client.
func NewContract(client *Client, address string, parsed abi.ABI, opts ...ContractOption) (*Contract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}
	addr := common.HexToAddress(address)
	c := &Contract{
		address: addr,
		bound:   bind.NewBoundContract(addr, parsed, client.eth, client.eth, client.eth),
		chainID: client.ChainID(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Address is the checksummed contract address.
func (c *Contract) Address() common.Address { return c.address }

// SlotBalance reads slotBalance(slot).
func (c *Contract) SlotBalance(ctx context.Context, slot uint64) (decimal.Decimal, error) {
	var out []interface{}
	err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, methodSlotBalance, new(big.Int).SetUint64(slot))
	if err != nil {
		return decimal.Zero, fmt.Errorf("call %s(%d): %w", methodSlotBalance, slot, err)
	}
	if len(out) == 0 {
		return decimal.Zero, fmt.Errorf("call %s(%d): empty result", methodSlotBalance, slot)
	}
	value, ok := abi.ConvertType(out[0], new(big.Int)).(*big.Int)
	if !ok || value == nil {
		return decimal.Zero, fmt.Errorf("call %s(%d): unexpected result %T", methodSlotBalance, slot, out[0])
	}
	return decimal.NewFromBigInt(value, 0), nil
}

// Mint signs and sends _mint(account, slot, amount). Fractional units round up.
func (c *Contract) Mint(ctx context.Context, account Account, slot uint64, amount decimal.Decimal) (*types.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrZeroAmount, amount)
	}
	value := amount.Ceil().BigInt()
	opts, err := bind.NewKeyedTransactorWithChainID(account.Key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	opts.Context = ctx
	opts.GasLimit = c.gasLimit
	if c.gasPrice != nil {
		opts.GasPrice = new(big.Int).Set(c.gasPrice)
	}
	tx, err := c.bound.Transact(opts, methodMint, account.Address, new(big.Int).SetUint64(slot), value)
	if err != nil {
		return nil, fmt.Errorf("transact %s: %w", methodMint, err)
	}
	return tx, nil
}

// SlotMinter adapts a contract and the borrowed account to the loop's write capability.
type SlotMinter struct {
	Contract *Contract
	Account  Account
}

func (m SlotMinter) Mint(ctx context.Context, slot uint64, amount decimal.Decimal) (string, error) {
	tx, err := m.Contract.Mint(ctx, m.Account, slot, amount)
	if err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}
