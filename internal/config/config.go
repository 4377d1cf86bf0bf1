// Package config loads daemon configuration from the environment.
package config

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds the daemon configuration.
type Config struct {
	ListenAddr   string             `envconfig:"LISTEN_ADDR" default:":8080"`
	Network      string             `envconfig:"LEDGER_NETWORK" default:"testnet"`
	MirrorURL    string             `envconfig:"MIRROR_URL"`
	RelayURL     string             `envconfig:"RELAY_URL"`
	StoreBackend string             `envconfig:"STORE_BACKEND" default:"memory"`
	SQLitePath   string             `envconfig:"SQLITE_PATH" default:"wallet.db"`
	DatabaseURL  string             `envconfig:"DATABASE_URL"`
	WalletSeed   string             `envconfig:"WALLET_SEED"` // hex entropy for native key derivation
	AutoApprove  bool               `envconfig:"AUTO_APPROVE"`
	FeeCollector string             `envconfig:"FEE_COLLECTOR"`
	ServiceFees  map[string]float64 `envconfig:"SERVICE_FEES"`
	MaxBodyBytes int64              `envconfig:"MAX_BODY_BYTES" default:"1048576"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	var missing []string

	if c.MirrorURL == "" {
		missing = append(missing, "MIRROR_URL")
	}
	if c.RelayURL == "" {
		missing = append(missing, "RELAY_URL")
	}
	if c.WalletSeed == "" {
		missing = append(missing, "WALLET_SEED")
	}
	if len(missing) > 0 {
		return errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}

	if _, err := hex.DecodeString(c.WalletSeed); err != nil {
		return errors.New("WALLET_SEED must be hex encoded")
	}

	switch c.StoreBackend {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("STORE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return errors.New("STORE_BACKEND must be one of memory, sqlite, postgres")
	}

	if len(c.ServiceFees) > 0 && c.FeeCollector == "" {
		return errors.New("SERVICE_FEES requires FEE_COLLECTOR")
	}

	return nil
}

// Seed returns the decoded wallet seed. Validate must have passed.
func (c *Config) Seed() []byte {
	seed, _ := hex.DecodeString(c.WalletSeed)
	return seed
}
