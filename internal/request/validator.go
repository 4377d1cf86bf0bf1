// Package request shape-checks every inbound wallet request before it can
// reach money-moving code. All checks are pure and synchronous; a failure is
// terminal for the request and names the offending field.
package request

import (
	"math"
	"regexp"
	"strconv"

	"github.com/example/walletcore/internal/errs"
	"github.com/example/walletcore/internal/hledger"
)

// AssetType classifies one swap or transfer leg.
type AssetType string

const (
	AssetNative      AssetType = "NATIVE"
	AssetFungible    AssetType = "FUNGIBLE"
	AssetNonFungible AssetType = "NON_FUNGIBLE"
)

// nftAssetIDPattern is the required tokenId/serialNumber shape.
var nftAssetIDPattern = regexp.MustCompile(`^[^\s/]+/[^\s/]+$`)

// AssetLeg is one validated side of a transfer or swap.
type AssetLeg struct {
	AssetType AssetType
	AssetID   string // empty for NATIVE; tokenId or tokenId/serial otherwise
	Amount    float64
	Decimals  uint32
	To        string // counterparty; native id or EVM hex
}

// AtomicSwap pairs the initiator's leg with the responder's.
type AtomicSwap struct {
	Requester AssetLeg
	Responder AssetLeg
}

// String extracts a string field. Empty strings fail when required.
func String(params map[string]any, op, field string, required bool) (string, error) {
	v, ok := params[field]
	if !ok || v == nil {
		if required {
			return "", errs.InvalidParams(op, field, "expected a non-empty string")
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", errs.InvalidParams(op, field, "expected a non-empty string")
	}
	return s, nil
}

// Number extracts a numeric field, rejecting non-finite and negative values.
func Number(params map[string]any, op, field string, required bool) (float64, error) {
	v, ok := params[field]
	if !ok || v == nil {
		if required {
			return 0, errs.InvalidParams(op, field, "expected a number")
		}
		return 0, nil
	}
	n, ok := v.(float64)
	if !ok {
		return 0, errs.InvalidParams(op, field, "expected a number")
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, errs.InvalidParams(op, field, "expected a finite number")
	}
	if n < 0 {
		return 0, errs.InvalidParams(op, field, "expected a non-negative number")
	}
	return n, nil
}

// AccountID extracts a string field that must parse as a ledger account id
// (native or EVM form).
func AccountID(params map[string]any, op, field string, required bool) (string, error) {
	s, err := String(params, op, field, required)
	if err != nil || s == "" {
		return "", err
	}
	if _, perr := hledger.AccountIDFromString(s); perr != nil {
		return "", errs.InvalidParams(op, field, "expected a ledger account id (shard.realm.num or EVM address): %v", perr)
	}
	return s, nil
}

// TokenID extracts a string field that must parse as a token id.
func TokenID(params map[string]any, op, field string, required bool) (string, error) {
	s, err := String(params, op, field, required)
	if err != nil || s == "" {
		return "", err
	}
	if _, perr := hledger.ParseTokenID(s); perr != nil {
		return "", errs.InvalidParams(op, field, "expected a token id (shard.realm.num): %v", perr)
	}
	return s, nil
}

// Curve extracts a curve claim.
func Curve(params map[string]any, op, field string, required bool) (hledger.Curve, error) {
	s, err := String(params, op, field, required)
	if err != nil || s == "" {
		return "", err
	}
	c, perr := hledger.ParseCurve(s)
	if perr != nil {
		return "", errs.InvalidParams(op, field, "expected one of ED25519, ECDSA_SECP256K1")
	}
	return c, nil
}

// Decimals extracts a token scale: a required integer between 0 and 18.
func Decimals(params map[string]any, op, field string) (uint32, error) {
	n, err := Number(params, op, field, true)
	if err != nil {
		return 0, err
	}
	if n != math.Trunc(n) || n > 18 {
		return 0, errs.InvalidParams(op, field, "expected an integer between 0 and 18")
	}
	return uint32(n), nil
}

// assetLeg validates one leg object. requireTo controls whether the leg must
// carry (requester) or must not carry (responder) a destination address.
func assetLeg(raw any, op, field string, requireTo bool) (AssetLeg, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return AssetLeg{}, errs.InvalidParams(op, field, "expected an asset leg object")
	}

	typeStr, err := String(obj, op, field+".assetType", true)
	if err != nil {
		return AssetLeg{}, err
	}
	assetType := AssetType(typeStr)
	switch assetType {
	case AssetNative, AssetFungible, AssetNonFungible:
	default:
		return AssetLeg{}, errs.InvalidParams(op, field+".assetType", "expected one of NATIVE, FUNGIBLE, NON_FUNGIBLE")
	}

	amount, err := Number(obj, op, field+".amount", true)
	if err != nil {
		return AssetLeg{}, err
	}

	leg := AssetLeg{AssetType: assetType, Amount: amount}

	switch assetType {
	case AssetNative:
		if _, present := obj["assetId"]; present {
			return AssetLeg{}, errs.InvalidParams(op, field+".assetId", "must be absent for NATIVE legs")
		}
		leg.Decimals = hledger.HbarDecimals
	case AssetFungible:
		leg.AssetID, err = TokenID(obj, op, field+".assetId", true)
		if err != nil {
			return AssetLeg{}, err
		}
		leg.Decimals, err = Decimals(obj, op, field+".decimals")
		if err != nil {
			return AssetLeg{}, err
		}
	case AssetNonFungible:
		leg.AssetID, err = String(obj, op, field+".assetId", true)
		if err != nil {
			return AssetLeg{}, err
		}
		if !nftAssetIDPattern.MatchString(leg.AssetID) {
			return AssetLeg{}, errs.InvalidParams(op, field+".assetId", "expected tokenId/serialNumber")
		}
		if amount != 1 {
			return AssetLeg{}, errs.InvalidParams(op, field+".amount", "NON_FUNGIBLE legs always move exactly 1 serial")
		}
	}

	to, err := AccountID(obj, op, field+".to", requireTo)
	if err != nil {
		return AssetLeg{}, err
	}
	if !requireTo && to != "" {
		return AssetLeg{}, errs.InvalidParams(op, field+".to", "only the requester leg names a destination; the responder pays the schedule creator")
	}
	leg.To = to
	return leg, nil
}

// Swap validates one atomic swap object: both legs independently, then the
// pairwise rules (no self-swap, destination on the requester side only).
func Swap(raw any, op, field string) (AtomicSwap, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return AtomicSwap{}, errs.InvalidParams(op, field, "expected a swap object with requester and responder legs")
	}

	requester, err := assetLeg(obj["requester"], op, field+".requester", true)
	if err != nil {
		return AtomicSwap{}, err
	}
	responder, err := assetLeg(obj["responder"], op, field+".responder", false)
	if err != nil {
		return AtomicSwap{}, err
	}

	if requester.AssetType == AssetNative && responder.AssetType == AssetNative {
		return AtomicSwap{}, errs.InvalidParams(op, field, "both legs are NATIVE; a swap must reference two different assets")
	}
	if requester.AssetType != AssetNative && responder.AssetType != AssetNative && requester.AssetID == responder.AssetID {
		return AtomicSwap{}, errs.InvalidParams(op, field, "both legs reference asset %s; a swap of an asset for itself is a no-op", requester.AssetID)
	}

	return AtomicSwap{Requester: requester, Responder: responder}, nil
}

// Swaps validates the swap batch for initiateSwap.
func Swaps(params map[string]any, op, field string) ([]AtomicSwap, error) {
	raw, ok := params[field]
	if !ok || raw == nil {
		return nil, errs.InvalidParams(op, field, "expected a non-empty array of swaps")
	}
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, errs.InvalidParams(op, field, "expected a non-empty array of swaps")
	}
	swaps := make([]AtomicSwap, 0, len(list))
	for i, item := range list {
		s, err := Swap(item, op, indexed(field, i))
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, s)
	}
	return swaps, nil
}

// Transfers validates the leg batch for transferAssets. Every leg must name a
// destination.
func Transfers(params map[string]any, op, field string) ([]AssetLeg, error) {
	raw, ok := params[field]
	if !ok || raw == nil {
		return nil, errs.InvalidParams(op, field, "expected a non-empty array of asset legs")
	}
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, errs.InvalidParams(op, field, "expected a non-empty array of asset legs")
	}
	legs := make([]AssetLeg, 0, len(list))
	for i, item := range list {
		leg, err := assetLeg(item, op, indexed(field, i), true)
		if err != nil {
			return nil, err
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

// Bool extracts an optional boolean flag, defaulting to false.
func Bool(params map[string]any, op, field string) (bool, error) {
	v, ok := params[field]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, errs.InvalidParams(op, field, "expected a boolean")
	}
	return b, nil
}

// Int64List extracts a list of positive integers, e.g. NFT serials.
func Int64List(params map[string]any, op, field string, required bool) ([]int64, error) {
	raw, ok := params[field]
	if !ok || raw == nil {
		if required {
			return nil, errs.InvalidParams(op, field, "expected a non-empty array of integers")
		}
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok || (required && len(list) == 0) {
		return nil, errs.InvalidParams(op, field, "expected a non-empty array of integers")
	}
	out := make([]int64, 0, len(list))
	for i, item := range list {
		n, ok := item.(float64)
		if !ok || n != math.Trunc(n) || n <= 0 {
			return nil, errs.InvalidParams(op, indexed(field, i), "expected a positive integer")
		}
		out = append(out, int64(n))
	}
	return out, nil
}

// StringList extracts a list of non-empty strings.
func StringList(params map[string]any, op, field string, required bool) ([]string, error) {
	raw, ok := params[field]
	if !ok || raw == nil {
		if required {
			return nil, errs.InvalidParams(op, field, "expected a non-empty array of strings")
		}
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok || (required && len(list) == 0) {
		return nil, errs.InvalidParams(op, field, "expected a non-empty array of strings")
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok || s == "" {
			return nil, errs.InvalidParams(op, indexed(field, i), "expected a non-empty string")
		}
		out = append(out, s)
	}
	return out, nil
}

// ServiceFees extracts the optional assetId → flat fee map for swaps.
func ServiceFees(params map[string]any, op, field string) (map[string]float64, error) {
	raw, ok := params[field]
	if !ok || raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errs.InvalidParams(op, field, "expected an object mapping asset ids to flat fees")
	}
	fees := make(map[string]float64, len(obj))
	for asset := range obj {
		fee, err := Number(obj, op, field+"."+asset, true)
		if err != nil {
			return nil, err
		}
		fees[asset] = fee
	}
	return fees, nil
}

func indexed(field string, i int) string {
	return field + "[" + strconv.Itoa(i) + "]"
}
