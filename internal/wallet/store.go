package wallet

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store keeps one encrypted key in a keystore-format JSON file.
type Store struct {
	path       string
	passphrase string
	scryptN    int
	scryptP    int
	log        zerolog.Logger
}

// StoreOption tunes the key derivation cost.
type StoreOption func(*Store)

// WithLightScrypt trades brute-force resistance for speed; meant for tests and dev wallets.
func WithLightScrypt() StoreOption {
	return func(s *Store) {
		s.scryptN = keystore.LightScryptN
		s.scryptP = keystore.LightScryptP
	}
}

func NewStore(path, passphrase string, log zerolog.Logger, opts ...StoreOption) *Store {
	s := &Store{
		path:       path,
		passphrase: passphrase,
		scryptN:    keystore.StandardScryptN,
		scryptP:    keystore.StandardScryptP,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string { return s.path }

// LoadOrCreate returns the stored key, generating and saving a new one when the file is
// missing or unreadable as a keystore. A wrong passphrase is an error and leaves the file alone.
func (s *Store) LoadOrCreate() (key *ecdsa.PrivateKey, created bool, err error) {
	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		stored, decErr := keystore.DecryptKey(data, s.passphrase)
		if decErr == nil {
			s.log.Info().Str("address", stored.Address.Hex()).Str("path", s.path).Msg("existing wallet loaded")
			return stored.PrivateKey, false, nil
		}
		if errors.Is(decErr, keystore.ErrDecrypt) {
			return nil, false, fmt.Errorf("decrypt wallet %s: %w", s.path, decErr)
		}
		s.log.Error().Err(decErr).Str("path", s.path).Msg("error loading wallet, removing corrupt wallet file")
		if rmErr := os.Remove(s.path); rmErr != nil {
			return nil, false, fmt.Errorf("remove corrupt wallet: %w", rmErr)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, false, fmt.Errorf("read wallet: %w", err)
	}

	key, err = s.create()
	if err != nil {
		return nil, false, err
	}
	return key, true, nil
}

func (s *Store) create() (*ecdsa.PrivateKey, error) {
	if s.passphrase == "" {
		return nil, errors.New("refusing to create an unencrypted wallet: passphrase is empty")
	}
	pk, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	stored := &keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(pk.PublicKey),
		PrivateKey: pk,
	}
	data, err := keystore.EncryptKey(stored, s.passphrase, s.scryptN, s.scryptP)
	if err != nil {
		return nil, fmt.Errorf("encrypt wallet: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create wallet dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write wallet: %w", err)
	}
	s.log.Info().Str("address", stored.Address.Hex()).Str("path", s.path).Msg("new wallet created")
	return pk, nil
}

// StoredAddress reads the address field of the key file without decrypting it.
func StoredAddress(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read wallet: %w", err)
	}
	var head struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", fmt.Errorf("decode wallet: %w", err)
	}
	if head.Address == "" {
		return "", errors.New("wallet file has no address")
	}
	return "0x" + head.Address, nil
}

// Resolve picks the signing key: PRIVATE_KEY when it parses, otherwise the key file.
func Resolve(privateKeyHex string, store *Store, log zerolog.Logger) (*ecdsa.PrivateKey, error) {
	var parseErr error
	if privateKeyHex != "" {
		key, err := ParsePrivateKey(privateKeyHex)
		if err == nil {
			return key, nil
		}
		parseErr = err
		if store != nil {
			log.Error().Err(err).Msg("failed to use PRIVATE_KEY, falling back to wallet file")
		}
	}
	if store == nil {
		if parseErr != nil {
			return nil, parseErr
		}
		return nil, ErrNoKey
	}
	key, _, err := store.LoadOrCreate()
	return key, err
}
