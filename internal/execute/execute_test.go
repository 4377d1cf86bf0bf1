package execute

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/walletcore/internal/errs"
	"github.com/example/walletcore/internal/hledger"
)

// mockClient scripts submission outcomes and records every attempt.
type mockClient struct {
	operator hledger.AccountID
	outcomes []error // nil means success on that attempt
	record   *hledger.Record
	attempts []string // transaction IDs seen
}

func (m *mockClient) Operator() hledger.AccountID { return m.operator }
func (m *mockClient) OperatorPublicKey() string   { return "aabb" }
func (m *mockClient) Network() string             { return "testnet" }

func (m *mockClient) SubmitAndRecord(ctx context.Context, tx hledger.Transaction) (*hledger.Record, error) {
	m.attempts = append(m.attempts, tx.ID())
	idx := len(m.attempts) - 1
	if idx < len(m.outcomes) && m.outcomes[idx] != nil {
		return nil, m.outcomes[idx]
	}
	rec := *m.record
	rec.TransactionID = tx.ID()
	return &rec, nil
}

func successRecord() *hledger.Record {
	sched := hledger.ScheduleID{Num: 1234}
	return &hledger.Record{
		Receipt:            hledger.Receipt{Status: hledger.StatusSuccess, ScheduleID: &sched},
		ConsensusTimestamp: time.Date(2026, 2, 14, 9, 30, 15, 250_000_000, time.UTC),
		TransactionFee:     12_345_678, // tinybars
	}
}

// Two busy failures then a success must yield exactly one result, with every
// attempt reusing the same frozen transaction ID.
func TestExecuteRetriesBusyThenSucceeds(t *testing.T) {
	client := &mockClient{
		operator: hledger.AccountID{Num: 2},
		outcomes: []error{
			fmt.Errorf("precheck: %w", hledger.ErrBusy),
			fmt.Errorf("precheck: %w", hledger.ErrBusy),
			nil,
		},
		record: successRecord(),
	}

	tx := hledger.NewTransferTransaction().AddHbarTransfer(client.operator, -100)
	result, err := Execute(context.Background(), client, tx)
	require.NoError(t, err)

	require.Len(t, client.attempts, 3)
	assert.Equal(t, client.attempts[0], client.attempts[1])
	assert.Equal(t, client.attempts[0], client.attempts[2])
	assert.Equal(t, string(hledger.StatusSuccess), result.Status)
	assert.Equal(t, "0.0.1234", result.ScheduleID)
}

func TestExecuteExhaustsRetries(t *testing.T) {
	busy := fmt.Errorf("precheck: %w", hledger.ErrBusy)
	client := &mockClient{
		operator: hledger.AccountID{Num: 2},
		outcomes: []error{busy, busy, busy},
		record:   successRecord(),
	}

	tx := hledger.NewTransferTransaction().AddHbarTransfer(client.operator, -100)
	_, err := Execute(context.Background(), client, tx)
	require.Error(t, err)
	assert.Equal(t, errs.KindTransientNetwork, errs.KindOf(err))
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Len(t, client.attempts, 3)
}

func TestExecuteDoesNotRetryTerminalFailures(t *testing.T) {
	client := &mockClient{
		operator: hledger.AccountID{Num: 2},
		outcomes: []error{errors.New("INVALID_SIGNATURE")},
		record:   successRecord(),
	}

	tx := hledger.NewTransferTransaction().AddHbarTransfer(client.operator, -100)
	_, err := Execute(context.Background(), client, tx)
	require.Error(t, err)
	assert.Len(t, client.attempts, 1)
}

func TestNormalize(t *testing.T) {
	acct := hledger.AccountID{Num: 77}
	record := successRecord()
	record.Receipt.AccountID = &acct
	record.Receipt.SerialNumbers = []int64{4, 5}
	record.TransactionID = "0.0.2@1700000000.000000001"
	record.Children = []hledger.Record{{
		Receipt:        hledger.Receipt{Status: hledger.StatusSuccess},
		TransactionFee: 100_000_000,
	}}

	r := Normalize(record)
	assert.Equal(t, "SUCCESS", r.Status)
	assert.Equal(t, "0.0.77", r.AccountID)
	assert.Equal(t, "0.0.1234", r.ScheduleID)
	assert.Equal(t, []int64{4, 5}, r.SerialNumbers)
	// Tinybars become display units, timestamps a fixed UTC string.
	assert.Equal(t, "0.12345678", r.Fee)
	assert.Equal(t, "2026-02-14 09:30:15.250 UTC", r.ConsensusTime)
	require.Len(t, r.Children, 1)
	assert.Equal(t, "1", r.Children[0].Fee)
}

func TestSucceededTreatsAlreadyExecutedAsSuccess(t *testing.T) {
	r := &TxResult{Status: string(hledger.StatusScheduleAlreadyExecuted)}
	assert.True(t, r.Succeeded())

	r = &TxResult{Status: string(hledger.StatusInsufficientPayer)}
	assert.False(t, r.Succeeded())
}
