// Package execute is the single choke point through which every constructed
// transaction reaches the ledger. It owns the retry policy for the transient
// busy class and converts ledger-native records into the canonical TxResult
// shape the rest of the wallet consumes.
package execute

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/walletcore/internal/errs"
	"github.com/example/walletcore/internal/hledger"
)

// MaxAttempts bounds submissions of one transaction. The retry is immediate
// and unconditional on the busy class: frozen transactions are duplicate-safe
// because the network rejects repeated transaction IDs.
const MaxAttempts = 3

// consensusTimeLayout is the one timestamp form the wallet exposes outward.
const consensusTimeLayout = "2006-01-02 15:04:05.000 UTC"

// TxResult is the canonical normalized outcome of a submission. Amounts are
// display units and timestamps fixed-format UTC strings; ledger-native
// receipt/record shapes never leave this package.
type TxResult struct {
	Status           string     `json:"status"`
	TransactionID    string     `json:"transactionId"`
	TransactionHash  string     `json:"transactionHash,omitempty"`
	ConsensusTime    string     `json:"consensusTime,omitempty"`
	Fee              string     `json:"fee,omitempty"`
	AccountID        string     `json:"accountId,omitempty"`
	ContractID       string     `json:"contractId,omitempty"`
	TopicID          string     `json:"topicId,omitempty"`
	TokenID          string     `json:"tokenId,omitempty"`
	ScheduleID       string     `json:"scheduleId,omitempty"`
	TopicRunningHash string     `json:"topicRunningHash,omitempty"`
	SerialNumbers    []int64    `json:"serialNumbers,omitempty"`
	Children         []TxResult `json:"children,omitempty"`
	Duplicates       []TxResult `json:"duplicates,omitempty"`
}

// Succeeded reports whether the result represents an applied transaction,
// counting the idempotent already-executed schedule completion as success.
func (r *TxResult) Succeeded() bool {
	switch hledger.Status(r.Status) {
	case hledger.StatusSuccess, hledger.StatusScheduleAlreadyExecuted:
		return true
	}
	return false
}

// Execute submits tx through client, retrying the identical frozen
// transaction on the busy class up to MaxAttempts, and normalizes the record.
// No other component retries network failures.
func Execute(ctx context.Context, client hledger.SigningClient, tx hledger.Transaction) (*TxResult, error) {
	op := tx.Type()
	tx.Freeze(client.Operator(), time.Now())

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		record, err := client.SubmitAndRecord(ctx, tx)
		if err == nil {
			return Normalize(record), nil
		}
		if !errors.Is(err, hledger.ErrBusy) {
			return nil, errs.Wrap(op, err)
		}
		lastErr = err
	}

	return nil, &errs.Error{
		Kind:    errs.KindTransientNetwork,
		Op:      op,
		Message: "transaction failed after " + strconv.Itoa(MaxAttempts) + " attempts",
		Err:     lastErr,
	}
}

// Normalize flattens a ledger record into the canonical result shape,
// recursing into child and duplicate records.
func Normalize(record *hledger.Record) *TxResult {
	r := &TxResult{
		Status:           string(record.Receipt.Status),
		TransactionID:    record.TransactionID,
		TransactionHash:  record.TransactionHash,
		ContractID:       record.Receipt.ContractID,
		TopicID:          record.Receipt.TopicID,
		TopicRunningHash: record.Receipt.TopicRunningHash,
		SerialNumbers:    record.Receipt.SerialNumbers,
	}
	if !record.ConsensusTimestamp.IsZero() {
		r.ConsensusTime = record.ConsensusTimestamp.UTC().Format(consensusTimeLayout)
	}
	if record.TransactionFee != 0 {
		r.Fee = decimal.New(record.TransactionFee, -hledger.HbarDecimals).String()
	}
	if record.Receipt.AccountID != nil {
		r.AccountID = record.Receipt.AccountID.String()
	}
	if record.Receipt.TokenID != nil {
		r.TokenID = record.Receipt.TokenID.String()
	}
	if record.Receipt.ScheduleID != nil {
		r.ScheduleID = record.Receipt.ScheduleID.String()
	}
	for i := range record.Children {
		r.Children = append(r.Children, *Normalize(&record.Children[i]))
	}
	for i := range record.Duplicates {
		r.Duplicates = append(r.Duplicates, *Normalize(&record.Duplicates[i]))
	}
	return r
}
