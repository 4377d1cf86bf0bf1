package hledger

import (
	"errors"
	"time"
)

// Status is the network's verdict on a submitted transaction.
type Status string

const (
	StatusOK      Status = "OK" // precheck accepted, record pending
	StatusSuccess Status = "SUCCESS"
	StatusBusy    Status = "BUSY"

	StatusScheduleAlreadyExecuted Status = "SCHEDULE_ALREADY_EXECUTED"
	StatusScheduleAlreadyDeleted  Status = "SCHEDULE_ALREADY_DELETED"
	StatusInvalidScheduleID       Status = "INVALID_SCHEDULE_ID"
	StatusScheduleExpired         Status = "INVALID_SCHEDULE_ACCOUNT_ID" // network reports expired schedules as purged entities
	StatusInsufficientPayer       Status = "INSUFFICIENT_PAYER_BALANCE"
)

// ErrBusy is the transient failure class. Submissions failing with it may be
// retried with the identical frozen transaction; everything else is terminal
// at the submission layer.
var ErrBusy = errors.New("ledger node busy")

// Receipt is the minimal network acknowledgment for one transaction.
type Receipt struct {
	Status           Status      `json:"status"`
	AccountID        *AccountID  `json:"accountId,omitempty"`
	TokenID          *TokenID    `json:"tokenId,omitempty"`
	ScheduleID       *ScheduleID `json:"scheduleId,omitempty"`
	ContractID       string      `json:"contractId,omitempty"`
	TopicID          string      `json:"topicId,omitempty"`
	TopicRunningHash string      `json:"topicRunningHash,omitempty"`
	SerialNumbers    []int64     `json:"serialNumbers,omitempty"`
}

// Record is the authoritative post-consensus account of a transaction,
// including any child and duplicate records. Only the execution wrapper may
// interpret this shape; every other component consumes the normalized
// TxResult it produces.
type Record struct {
	Receipt            Receipt   `json:"receipt"`
	TransactionID      string    `json:"transactionId"`
	TransactionHash    string    `json:"transactionHash,omitempty"`
	ConsensusTimestamp time.Time `json:"consensusTimestamp"`
	TransactionFee     int64     `json:"transactionFee"` // tinybars
	Memo               string    `json:"memo,omitempty"`
	Children           []Record  `json:"children,omitempty"`
	Duplicates         []Record  `json:"duplicates,omitempty"`
}
