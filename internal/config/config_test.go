package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		ListenAddr:   ":8080",
		Network:      "testnet",
		MirrorURL:    "https://mirror.example",
		RelayURL:     "https://relay.example",
		StoreBackend: StoreMemory,
		WalletSeed:   "a1b2c3d4",
		MaxBodyBytes: 1 << 20,
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("missing required vars are all named", func(t *testing.T) {
		cfg := validConfig()
		cfg.MirrorURL = ""
		cfg.WalletSeed = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MIRROR_URL")
		assert.Contains(t, err.Error(), "WALLET_SEED")
	})

	t.Run("seed must be hex", func(t *testing.T) {
		cfg := validConfig()
		cfg.WalletSeed = "not-hex!"
		assert.Error(t, cfg.Validate())
	})

	t.Run("postgres requires database url", func(t *testing.T) {
		cfg := validConfig()
		cfg.StoreBackend = StorePostgres
		assert.Error(t, cfg.Validate())

		cfg.DatabaseURL = "postgres://wallet@localhost/wallet"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := validConfig()
		cfg.StoreBackend = "redis"
		assert.Error(t, cfg.Validate())
	})

	t.Run("service fees require a collector", func(t *testing.T) {
		cfg := validConfig()
		cfg.ServiceFees = map[string]float64{"0.0.5005": 0.25}
		assert.Error(t, cfg.Validate())

		cfg.FeeCollector = "0.0.50"
		assert.NoError(t, cfg.Validate())
	})
}

func TestSeedDecodesHex(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, []byte{0xa1, 0xb2, 0xc3, 0xd4}, cfg.Seed())
}
