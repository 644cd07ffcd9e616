// Package wallet provides the signing key for the slot agent, either from the environment or
// from a persisted, passphrase-encrypted key file.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// ErrNoKey is returned when neither PRIVATE_KEY nor a key file is available.
var ErrNoKey = errors.New("PRIVATE_KEY not set")

// ParsePrivateKey accepts a hex key with or without the 0x prefix.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}
