package hledger

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btcsuite/btcd/btcec/v2"
)

func TestPrivateKeyED25519(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}

	priv, err := PrivateKeyFromHex(CurveED25519, hex.EncodeToString(seed))
	require.NoError(t, err)

	pub, err := priv.PublicKey()
	require.NoError(t, err)

	sig, err := priv.Sign([]byte("payload"))
	require.NoError(t, err)

	pubBytes, err := hex.DecodeString(pub)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(pubBytes), []byte("payload"), sig))
}

func TestPrivateKeyECDSA(t *testing.T) {
	raw := make([]byte, 32)
	raw[31] = 7

	priv, err := PrivateKeyFromHex(CurveECDSA, "0x"+hex.EncodeToString(raw))
	require.NoError(t, err)

	pub, err := priv.PublicKey()
	require.NoError(t, err)
	// Compressed secp256k1 public keys are 33 bytes.
	assert.Len(t, pub, 66)

	sig, err := priv.Sign([]byte("payload"))
	require.NoError(t, err)

	parsed, err := btcecdsa.ParseDERSignature(sig)
	require.NoError(t, err)
	btcPriv, _ := btcec.PrivKeyFromBytes(raw)
	digest := sha256.Sum256([]byte("payload"))
	assert.True(t, parsed.Verify(digest[:], btcPriv.PubKey()))
}

func TestPrivateKeyFromHexRejectsBadInput(t *testing.T) {
	_, err := PrivateKeyFromHex(CurveED25519, "zz")
	assert.Error(t, err)

	_, err = PrivateKeyFromHex(CurveED25519, "abcd")
	assert.Error(t, err)

	_, err = PrivateKeyFromHex(CurveECDSA, "abcd")
	assert.Error(t, err)
}

func TestPrivateKeyFromSeedDeterministic(t *testing.T) {
	a := PrivateKeyFromSeed([]byte("wallet-seed"), []byte("0xabc"), []byte("testnet"))
	b := PrivateKeyFromSeed([]byte("wallet-seed"), []byte("0xabc"), []byte("testnet"))
	c := PrivateKeyFromSeed([]byte("wallet-seed"), []byte("0xdef"), []byte("testnet"))

	pubA, err := a.PublicKey()
	require.NoError(t, err)
	pubB, err := b.PublicKey()
	require.NoError(t, err)
	pubC, err := c.PublicKey()
	require.NoError(t, err)

	assert.Equal(t, pubA, pubB)
	assert.NotEqual(t, pubA, pubC)
}

func TestKeystoreVerify(t *testing.T) {
	priv := PrivateKeyFromSeed([]byte("seed"))
	pub, err := priv.PublicKey()
	require.NoError(t, err)

	ks := &Keystore{Curve: CurveED25519, PrivateKey: priv.Hex(), PublicKey: pub, Address: "0xabc"}
	assert.NoError(t, ks.Verify())

	ks.PublicKey = "00" + pub[2:]
	assert.ErrorContains(t, ks.Verify(), "not derivable")
}

func TestTransactionFreezeIdempotent(t *testing.T) {
	tx := NewTransferTransaction().AddHbarTransfer(AccountID{Num: 2}, -100)
	payer := AccountID{Num: 2}

	at := time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)
	tx.Freeze(payer, at)
	first := tx.ID()
	require.NotEmpty(t, first)
	assert.Equal(t, fmt.Sprintf("0.0.2@%d.%09d", at.Unix(), 500), first)

	// Re-freezing keeps the original ID so retries stay duplicate-safe.
	tx.Freeze(payer, at.Add(time.Hour))
	assert.Equal(t, first, tx.ID())
}
