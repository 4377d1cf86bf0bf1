// Package hledger holds the ledger-native primitives the wallet builds on:
// entity identifiers, signing keys, transaction bodies, and the receipt/record
// shapes that come back from the network. Wire encoding and transport stay
// behind the SigningClient interface.
package hledger

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// AccountID identifies a ledger account in shard.realm.num form.
type AccountID struct {
	Shard uint64
	Realm uint64
	Num   uint64
}

func (a AccountID) String() string {
	return fmt.Sprintf("%d.%d.%d", a.Shard, a.Realm, a.Num)
}

// IsZero reports whether a is the zero account (no account bound).
func (a AccountID) IsZero() bool {
	return a.Shard == 0 && a.Realm == 0 && a.Num == 0
}

// ParseAccountID parses "shard.realm.num".
func ParseAccountID(s string) (AccountID, error) {
	shard, realm, num, err := parseEntityID(s)
	if err != nil {
		return AccountID{}, fmt.Errorf("invalid account id %q: %w", s, err)
	}
	return AccountID{Shard: shard, Realm: realm, Num: num}, nil
}

// AccountIDFromEVMAddress converts a long-zero EVM address (20 hex bytes,
// optional 0x prefix, first 12 bytes zero) into the native account id by
// reinterpreting the low-order 8 bytes as the account number.
func AccountIDFromEVMAddress(addr string) (AccountID, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	raw, err := hex.DecodeString(h)
	if err != nil {
		return AccountID{}, fmt.Errorf("invalid evm address %q: %w", addr, err)
	}
	if len(raw) != 20 {
		return AccountID{}, fmt.Errorf("invalid evm address %q: expected 20 bytes, got %d", addr, len(raw))
	}
	for _, b := range raw[:12] {
		if b != 0 {
			return AccountID{}, fmt.Errorf("evm address %q is not in long-zero form", addr)
		}
	}
	return AccountID{Num: binary.BigEndian.Uint64(raw[12:])}, nil
}

// IsEVMAddress reports whether s looks like a 20-byte hex address rather than
// a native entity id.
func IsEVMAddress(s string) bool {
	h := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(h) != 40 {
		return false
	}
	_, err := hex.DecodeString(h)
	return err == nil
}

// AccountIDFromString accepts either native or EVM form.
func AccountIDFromString(s string) (AccountID, error) {
	if IsEVMAddress(s) {
		return AccountIDFromEVMAddress(s)
	}
	return ParseAccountID(s)
}

// TokenID identifies a fungible or non-fungible token type.
type TokenID struct {
	Shard uint64
	Realm uint64
	Num   uint64
}

func (t TokenID) String() string {
	return fmt.Sprintf("%d.%d.%d", t.Shard, t.Realm, t.Num)
}

// ParseTokenID parses "shard.realm.num".
func ParseTokenID(s string) (TokenID, error) {
	shard, realm, num, err := parseEntityID(s)
	if err != nil {
		return TokenID{}, fmt.Errorf("invalid token id %q: %w", s, err)
	}
	return TokenID{Shard: shard, Realm: realm, Num: num}, nil
}

// NftID identifies a single serial of a non-fungible token.
type NftID struct {
	Token  TokenID
	Serial int64
}

func (n NftID) String() string {
	return fmt.Sprintf("%s/%d", n.Token, n.Serial)
}

// ParseNftID parses "tokenId/serialNumber".
func ParseNftID(s string) (NftID, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return NftID{}, fmt.Errorf("invalid nft id %q: expected tokenId/serialNumber", s)
	}
	token, err := ParseTokenID(parts[0])
	if err != nil {
		return NftID{}, err
	}
	serial, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || serial <= 0 {
		return NftID{}, fmt.Errorf("invalid nft serial %q", parts[1])
	}
	return NftID{Token: token, Serial: serial}, nil
}

// ScheduleID identifies a scheduled transaction entity.
type ScheduleID struct {
	Shard uint64
	Realm uint64
	Num   uint64
}

func (s ScheduleID) String() string {
	return fmt.Sprintf("%d.%d.%d", s.Shard, s.Realm, s.Num)
}

// ParseScheduleID parses "shard.realm.num".
func ParseScheduleID(s string) (ScheduleID, error) {
	shard, realm, num, err := parseEntityID(s)
	if err != nil {
		return ScheduleID{}, fmt.Errorf("invalid schedule id %q: %w", s, err)
	}
	return ScheduleID{Shard: shard, Realm: realm, Num: num}, nil
}

func parseEntityID(s string) (shard, realm, num uint64, err error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("expected shard.realm.num")
	}
	vals := make([]uint64, 3)
	for i, p := range parts {
		v, perr := strconv.ParseUint(p, 10, 64)
		if perr != nil {
			return 0, 0, 0, fmt.Errorf("non-numeric segment %q", p)
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], nil
}
