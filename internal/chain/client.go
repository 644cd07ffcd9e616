// Package chain binds the slot agent to an EVM node and its ERC-3525 contract.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

// ErrNotConnected is returned when the RPC endpoint cannot be reached at startup.
var ErrNotConnected = errors.New("ethereum node not reachable")

// Client is a connected RPC handle plus the chain id used for signing.
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
}

// Dial connects to rpcURL and verifies the node answers before returning.
func Dial(ctx context.Context, rpcURL string, log zerolog.Logger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotConnected, err)
	}
	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("%w: chain id: %w", ErrNotConnected, err)
	}
	block, err := eth.BlockNumber(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("%w: block number: %w", ErrNotConnected, err)
	}
	log.Info().Str("chain_id", chainID.String()).Uint64("block", block).Msg("connected to ethereum node")
	return &Client{eth: eth, chainID: chainID}, nil
}

// ChainID returns the id the node reported at dial time.
func (c *Client) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

func (c *Client) Close() { c.eth.Close() }

// Account is the signing identity borrowed by the mint loop.
type Account struct {
	Address common.Address
	Key     *ecdsa.PrivateKey
}

// NewAccount derives the address for key.
func NewAccount(key *ecdsa.PrivateKey) Account {
	return Account{Address: crypto.PubkeyToAddress(key.PublicKey), Key: key}
}
