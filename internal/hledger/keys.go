package hledger

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// Curve is one of the two signature schemes an account key can use.
type Curve string

const (
	CurveED25519 Curve = "ED25519"
	CurveECDSA   Curve = "ECDSA_SECP256K1"

	// DefaultCurve is assumed when the on-ledger key is in the single-key
	// legacy format that does not record a scheme.
	DefaultCurve = CurveED25519
)

// ParseCurve validates a caller-supplied curve name.
func ParseCurve(s string) (Curve, error) {
	switch Curve(strings.ToUpper(strings.TrimSpace(s))) {
	case CurveED25519:
		return CurveED25519, nil
	case CurveECDSA:
		return CurveECDSA, nil
	default:
		return "", fmt.Errorf("unsupported curve %q", s)
	}
}

// PrivateKey is a raw signing key bound to a curve.
type PrivateKey struct {
	Curve Curve
	raw   []byte
}

// PrivateKeyFromHex parses a hex-encoded private key under the given curve.
// ED25519 accepts a 32-byte seed or 64-byte expanded key; secp256k1 accepts a
// 32-byte scalar.
func PrivateKeyFromHex(curve Curve, keyHex string) (*PrivateKey, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(keyHex), "0x"), "0X")
	raw, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("private key is not valid hex: %w", err)
	}
	switch curve {
	case CurveED25519:
		if len(raw) == ed25519.PrivateKeySize {
			raw = raw[:ed25519.SeedSize]
		}
		if len(raw) != ed25519.SeedSize {
			return nil, fmt.Errorf("ed25519 private key must be %d bytes, got %d", ed25519.SeedSize, len(raw))
		}
	case CurveECDSA:
		if len(raw) != 32 {
			return nil, fmt.Errorf("secp256k1 private key must be 32 bytes, got %d", len(raw))
		}
	default:
		return nil, fmt.Errorf("unsupported curve %q", curve)
	}
	return &PrivateKey{Curve: curve, raw: raw}, nil
}

// PrivateKeyFromSeed derives a deterministic ED25519 key from arbitrary seed
// material. Used by the native resolution path.
func PrivateKeyFromSeed(material ...[]byte) *PrivateKey {
	h := sha256.New()
	for _, m := range material {
		h.Write(m)
	}
	return &PrivateKey{Curve: CurveED25519, raw: h.Sum(nil)}
}

// PublicKey derives the public key under the private key's curve.
func (k *PrivateKey) PublicKey() (string, error) {
	switch k.Curve {
	case CurveED25519:
		pub := ed25519.NewKeyFromSeed(k.raw).Public().(ed25519.PublicKey)
		return hex.EncodeToString(pub), nil
	case CurveECDSA:
		priv, _ := btcec.PrivKeyFromBytes(k.raw)
		return hex.EncodeToString(priv.PubKey().SerializeCompressed()), nil
	default:
		return "", fmt.Errorf("unsupported curve %q", k.Curve)
	}
}

// Sign signs message bytes. ED25519 signs the message directly; secp256k1
// signs its SHA-256 digest.
func (k *PrivateKey) Sign(message []byte) ([]byte, error) {
	switch k.Curve {
	case CurveED25519:
		return ed25519.Sign(ed25519.NewKeyFromSeed(k.raw), message), nil
	case CurveECDSA:
		priv, _ := btcec.PrivKeyFromBytes(k.raw)
		digest := sha256.Sum256(message)
		return btcecdsa.Sign(priv, digest[:]).Serialize(), nil
	default:
		return nil, fmt.Errorf("unsupported curve %q", k.Curve)
	}
}

// Hex returns the raw private key material as hex. Callers must not persist
// it outside the wallet state store.
func (k *PrivateKey) Hex() string { return hex.EncodeToString(k.raw) }

// Keystore binds key material to the logical account it signs for.
type Keystore struct {
	Curve           Curve  `json:"curve"`
	PrivateKey      string `json:"privateKey"`
	PublicKey       string `json:"publicKey"`
	Address         string `json:"address"`
	LedgerAccountID string `json:"ledgerAccountId"`
}

// Verify checks the keystore invariant: the public key must be derivable from
// the private key under the recorded curve.
func (ks *Keystore) Verify() error {
	priv, err := PrivateKeyFromHex(ks.Curve, ks.PrivateKey)
	if err != nil {
		return fmt.Errorf("keystore for %s: %w", ks.Address, err)
	}
	pub, err := priv.PublicKey()
	if err != nil {
		return err
	}
	if !strings.EqualFold(pub, ks.PublicKey) {
		return fmt.Errorf("keystore for %s: public key not derivable from private key under %s", ks.Address, ks.Curve)
	}
	return nil
}
