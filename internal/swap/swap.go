// Package swap assembles atomic multi-leg swaps into scheduled transfers. The
// initiator funds and administers the schedule; every counterparty that later
// signs it releases their side. Nothing moves until all required signatures
// arrive or the schedule expires.
package swap

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/walletcore/internal/errs"
	"github.com/example/walletcore/internal/execute"
	"github.com/example/walletcore/internal/hledger"
	"github.com/example/walletcore/internal/request"
)

// ScheduleExpiry is how long a created swap schedule stays signable.
const ScheduleExpiry = 30 * time.Minute

// NativeAssetKey indexes the service-fee table for native-unit legs.
const NativeAssetKey = "NATIVE"

// InitiateParams carries one validated swap batch into assembly.
type InitiateParams struct {
	Swaps        []request.AtomicSwap
	Memo         string
	MaxFee       int64 // tinybars, 0 leaves the node default
	ServiceFees  map[string]float64
	FeeCollector string
}

// ScaleToMinimalUnits converts a human-unit amount into minimal units at the
// given scale. The conversion must be exact: an amount that lands between
// minimal units is a caller error, not something to round.
func ScaleToMinimalUnits(op, field string, amount float64, decimals uint32) (int64, error) {
	units := decimal.NewFromFloat(amount).Mul(decimal.New(1, int32(decimals)))
	if !units.IsInteger() {
		return 0, errs.InvalidParams(op, field, "amount %v does not scale to a whole number of minimal units at %d decimals", amount, decimals)
	}
	big := units.BigInt()
	if !big.IsInt64() {
		return 0, errs.InvalidParams(op, field, "amount %v overflows at %d decimals", amount, decimals)
	}
	return big.Int64(), nil
}

// Initiate assembles the full multi-leg transfer for the batch, wraps it in a
// schedule administered and paid for by the operator, and submits it. The
// returned result carries the new schedule ID.
func Initiate(ctx context.Context, client hledger.SigningClient, p InitiateParams) (*execute.TxResult, error) {
	const op = "initiateSwap"

	if len(p.Swaps) == 0 {
		return nil, errs.InvalidParams(op, "swaps", "expected a non-empty array of swaps")
	}

	operator := client.Operator()
	transfer := hledger.NewTransferTransaction().SetMemo(p.Memo)
	if p.MaxFee > 0 {
		transfer.SetMaxFee(p.MaxFee)
	}

	var collector hledger.AccountID
	if len(p.ServiceFees) > 0 {
		parsed, err := hledger.AccountIDFromString(p.FeeCollector)
		if err != nil {
			return nil, errs.InvalidParams(op, "feeCollector", "expected a ledger account id: %v", err)
		}
		collector = parsed
	}

	for i, s := range p.Swaps {
		field := fmt.Sprintf("swaps[%d]", i)

		// Counterparties may be named in EVM hex form; each leg converts
		// independently.
		counterparty, err := hledger.AccountIDFromString(s.Requester.To)
		if err != nil {
			return nil, errs.InvalidParams(op, field+".requester.to", "%v", err)
		}

		if err := AddLeg(transfer, s.Requester, operator, counterparty, op, field+".requester"); err != nil {
			return nil, err
		}
		if err := AddLeg(transfer, s.Responder, counterparty, operator, op, field+".responder"); err != nil {
			return nil, err
		}

		// The fee policy is per asset, so both legs are checked; the
		// initiator pays in either case.
		if err := addServiceFee(transfer, s.Requester, operator, collector, p.ServiceFees, op, field+".requester"); err != nil {
			return nil, err
		}
		if err := addServiceFee(transfer, s.Responder, operator, collector, p.ServiceFees, op, field+".responder"); err != nil {
			return nil, err
		}
	}

	schedule := &hledger.ScheduleCreateTransaction{
		Scheduled:      transfer,
		AdminKey:       client.OperatorPublicKey(),
		PayerAccountID: operator,
		ExpirationTime: time.Now().Add(ScheduleExpiry),
	}

	result, err := execute.Execute(ctx, client, schedule)
	if err != nil {
		return nil, err
	}
	if !result.Succeeded() {
		return nil, errs.Terminal(op, "schedule creation failed with status %s", result.Status)
	}
	return result, nil
}

// Complete signs an existing swap schedule on behalf of the operator. Signing
// a schedule that already executed reports the recorded outcome as success, so
// repeated completion calls converge on one result.
func Complete(ctx context.Context, client hledger.SigningClient, scheduleID string) (*execute.TxResult, error) {
	const op = "completeSwap"

	id, err := hledger.ParseScheduleID(scheduleID)
	if err != nil {
		return nil, errs.InvalidParams(op, "scheduleId", "%v", err)
	}

	result, err := execute.Execute(ctx, client, &hledger.ScheduleSignTransaction{ScheduleID: id})
	if err != nil {
		return nil, err
	}

	switch hledger.Status(result.Status) {
	case hledger.StatusSuccess, hledger.StatusScheduleAlreadyExecuted:
		return result, nil
	case hledger.StatusScheduleAlreadyDeleted, hledger.StatusScheduleExpired, hledger.StatusInvalidScheduleID:
		return nil, errs.Terminal(op, "schedule %s can no longer be signed: %s", scheduleID, result.Status)
	default:
		return nil, errs.Terminal(op, "schedule sign failed with status %s", result.Status)
	}
}

// AddLeg appends one validated leg as balanced debit/credit entries, scaling
// the amount into minimal units.
func AddLeg(t *hledger.TransferTransaction, leg request.AssetLeg, from, to hledger.AccountID, op, field string) error {
	switch leg.AssetType {
	case request.AssetNative:
		tinybars, err := ScaleToMinimalUnits(op, field+".amount", leg.Amount, hledger.HbarDecimals)
		if err != nil {
			return err
		}
		t.AddHbarTransfer(from, -tinybars).AddHbarTransfer(to, tinybars)
	case request.AssetFungible:
		token, err := hledger.ParseTokenID(leg.AssetID)
		if err != nil {
			return errs.InvalidParams(op, field+".assetId", "%v", err)
		}
		units, err := ScaleToMinimalUnits(op, field+".amount", leg.Amount, leg.Decimals)
		if err != nil {
			return err
		}
		t.AddTokenTransfer(token, from, -units, leg.Decimals).AddTokenTransfer(token, to, units, leg.Decimals)
	case request.AssetNonFungible:
		nft, err := hledger.ParseNftID(leg.AssetID)
		if err != nil {
			return errs.InvalidParams(op, field+".assetId", "%v", err)
		}
		t.AddNftTransfer(nft, from, to)
	default:
		return errs.InvalidParams(op, field+".assetType", "unsupported asset type %q", leg.AssetType)
	}
	return nil
}

// addServiceFee debits the initiator a flat per-asset fee and credits the
// collector, in the same asset and scale as the given leg.
func addServiceFee(t *hledger.TransferTransaction, leg request.AssetLeg, initiator, collector hledger.AccountID, fees map[string]float64, op, field string) error {
	if len(fees) == 0 || leg.AssetType == request.AssetNonFungible {
		return nil
	}

	key := leg.AssetID
	if leg.AssetType == request.AssetNative {
		key = NativeAssetKey
	}
	fee, ok := fees[key]
	if !ok || fee == 0 {
		return nil
	}

	units, err := ScaleToMinimalUnits(op, field+".serviceFee", fee, leg.Decimals)
	if err != nil {
		return err
	}
	if leg.AssetType == request.AssetNative {
		t.AddHbarTransfer(initiator, -units).AddHbarTransfer(collector, units)
		return nil
	}
	token, err := hledger.ParseTokenID(leg.AssetID)
	if err != nil {
		return errs.InvalidParams(op, field+".assetId", "%v", err)
	}
	t.AddTokenTransfer(token, initiator, -units, leg.Decimals).AddTokenTransfer(token, collector, units, leg.Decimals)
	return nil
}
