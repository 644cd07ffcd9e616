package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"

	"agent3525/internal/config"
	"agent3525/internal/util"
	"agent3525/internal/wallet"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config (empty for defaults and env only)")
	flag.Parse()

	log := util.NewLogger("info")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	if cfg.Wallet.PrivateKey == "" {
		if addr, err := wallet.StoredAddress(cfg.Wallet.SeedFile); err == nil {
			fmt.Fprintln(os.Stdout, addr)
			return
		}
	}

	var store *wallet.Store
	if cfg.Wallet.Passphrase != "" {
		store = wallet.NewStore(cfg.Wallet.SeedFile, cfg.Wallet.Passphrase, log)
	}
	key, err := wallet.Resolve(cfg.Wallet.PrivateKey, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("resolve wallet (set PRIVATE_KEY or WALLET_PASSPHRASE)")
	}
	fmt.Fprintln(os.Stdout, crypto.PubkeyToAddress(key.PublicKey).Hex())
}
